// Package toolutil provides shared helpers for the MCP tool handlers.
package toolutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/cache"
)

// NormLang normalises a language field: empty string → the configured default.
func NormLang(lang string) string {
	if lang == "" {
		return engine.Cfg.DefaultLang
	}
	return lang
}

// NormMethod normalises a strategy preference: empty string → the configured one.
func NormMethod(method string) string {
	if method == "" {
		return engine.Cfg.PreferredMethod
	}
	return method
}

// CacheLoadJSON tries to load a cached value of type T.
// Returns the decoded value and true on hit; zero value and false on miss,
// decode error or a nil cache.
func CacheLoadJSON[T any](ctx context.Context, c *cache.VideoCache, key string) (T, bool) {
	var out T
	if c == nil {
		return out, false
	}
	if !c.GetJSON(ctx, key, &out) {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON stores v under key; failures are logged, not returned.
func CacheStoreJSON[T any](ctx context.Context, c *cache.VideoCache, key string, v T) {
	if c == nil {
		return
	}
	if err := c.SetJSON(ctx, key, v); err != nil {
		slog.Warn("toolutil: cache store failed", slog.String("key", key), slog.Any("error", err))
	}
}

// UserError adds classification advice to err when it carries an APIError.
func UserError(op string, err error) error {
	var apiErr *engine.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w (%s)", op, err, apiErr.UserMessage())
	}
	return fmt.Errorf("%s: %w", op, err)
}
