package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// CompleteFunc sends one prompt to one model.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// ModelChain tries a list of models in order until one answers.
type ModelChain struct {
	models  []string
	clients map[string]CompleteFunc
}

// NewModelChain builds one go-kit LLM client per model from cfg.
func NewModelChain(c Config) *ModelChain {
	httpClient := &http.Client{Timeout: 90 * time.Second}
	clients := make(map[string]CompleteFunc, len(c.LLMModels))
	for _, model := range c.LLMModels {
		client := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, model,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(httpClient),
		)
		clients[model] = func(ctx context.Context, prompt string) (string, error) {
			return client.Complete(ctx, "", prompt)
		}
	}
	return &ModelChain{models: c.LLMModels, clients: clients}
}

// NewModelChainWith builds a chain over explicit completion functions, in order.
func NewModelChainWith(models []string, fns map[string]CompleteFunc) *ModelChain {
	return &ModelChain{models: models, clients: fns}
}

// Models returns the configured fallback order.
func (m *ModelChain) Models() []string { return m.models }

// Generate sends prompt to modelHint first (when known), then the rest of the
// chain. Authentication failures stop the chain; anything else moves on.
func (m *ModelChain) Generate(ctx context.Context, prompt, modelHint string) (string, error) {
	if m == nil || len(m.clients) == 0 {
		return "", errors.New("llm: no models configured")
	}

	order := make([]string, 0, len(m.models)+1)
	if _, ok := m.clients[strings.TrimPrefix(modelHint, "models/")]; ok {
		order = append(order, strings.TrimPrefix(modelHint, "models/"))
	}
	for _, model := range m.models {
		if len(order) > 0 && model == order[0] {
			continue
		}
		order = append(order, model)
	}

	var lastErr *APIError
	for _, model := range order {
		fn, ok := m.clients[model]
		if !ok {
			continue
		}
		metrics.LLMCalls.Add(1)
		resp, err := fn(ctx, prompt)
		if err == nil {
			if resp = stripFences(resp); resp != "" {
				return resp, nil
			}
			err = errors.New("empty completion")
		}
		metrics.LLMErrors.Add(1)
		lastErr = ClassifyError(fmt.Errorf("model %s: %w", model, err))
		slog.Warn("llm: model failed", slog.String("model", model),
			slog.String("kind", string(lastErr.Kind)), slog.Any("error", err))
		if lastErr.Kind == KindAuth || ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		return "", errors.New("llm: no usable model")
	}
	return "", lastErr
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
