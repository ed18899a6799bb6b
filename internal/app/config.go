package app

import (
	"log/slog"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const defaultModels = "gemini-2.5-flash-lite-preview-09-2025,gemini-2.5-flash,gemini-2.0-flash-exp,gemini-1.5-flash,gemini-1.5-pro,gemini-2.5-pro"

// ConfigFromEnv reads the engine configuration from the environment.
func ConfigFromEnv() engine.Config {
	fetchTimeout := env.Duration("FETCH_TIMEOUT", 15*time.Second)
	return engine.Config{
		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModels:          env.List("LLM_MODELS", defaultModels),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 8192),
		OpenAIAPIKey:       env.Str("OPENAI_API_KEY", ""),
		FetchTimeout:       fetchTimeout,
		StrategyTimeout:    env.Duration("STRATEGY_TIMEOUT", 30*time.Second),
		InterceptTimeout:   env.Duration("INTERCEPT_TIMEOUT", 3*time.Second),
		DefaultLang:        env.Str("TRANSCRIPT_LANG", "en"),
		PreferredMethod:    env.Str("TRANSCRIPT_METHOD", "auto"),
		CacheTTL:           env.Duration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:    env.Int("CACHE_MAX_ENTRIES", 1000),
		RedisURL:           env.Str("REDIS_URL", ""),
		DatabaseURL:        env.Str("DATABASE_URL", ""),
		CacheDBPath:        env.Str("CACHE_DB_PATH", ""),
		BridgeAddr:         env.Str("BRIDGE_ADDR", "127.0.0.1:8894"),
		BridgeTimeout:      env.Duration("BRIDGE_TIMEOUT", 10*time.Second),
		MirrorsFile:        env.Str("MIRRORS_FILE", ""),
		HTTPClient:         engine.NewFetchClient(fetchTimeout),
	}
}

// NewBrowserClient builds the stealth client, routed through the Webshare
// proxy pool when WEBSHARE_API_KEY is set. It returns nil on failure.
func NewBrowserClient() *engine.BrowserClient {
	opts := []stealth.ClientOption{stealth.WithTimeout(15)}

	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
		return nil
	}
	slog.Info("stealth browser client initialized")
	return bc
}
