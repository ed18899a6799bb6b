// Package app assembles the transcript service from an engine.Config. It is
// shared by the MCP server and the CLI.
package app

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/anatolykoptev/go_transcript/internal/bridge"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/cache"
	"github.com/anatolykoptev/go_transcript/internal/engine/segments"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/engine/summary"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// App owns every long-lived component.
type App struct {
	Store       cache.Store
	Cache       *cache.VideoCache
	History     *cache.History
	Service     *transcript.Service
	Static      *sources.Static
	Mirror      *sources.Mirror
	Interceptor *sources.Interceptor // nil without a bridge
	Bridge      *bridge.Server       // nil when BridgeAddr is empty
	LLM         *engine.ModelChain   // nil without LLM_API_KEY
	Classifier  *segments.Classifier
	Summarizer  *summary.Summarizer
	Comments    sources.CommentSource

	channel *bridge.Channel
}

// New installs c as the engine configuration and builds the App.
func New(ctx context.Context, c engine.Config) (*App, error) {
	engine.Init(c)

	mirrors, err := sources.LoadMirrors(c.MirrorsFile)
	if err != nil {
		return nil, err
	}

	store := OpenStore(ctx, c)
	a := &App{
		Store:   store,
		Cache:   cache.New(store, cache.WithTTL(c.CacheTTL), cache.WithMaxEntries(c.CacheMaxEntries)),
		History: cache.NewHistory(store),
		Static:  sources.NewStatic(),
		Mirror:  sources.NewMirror(mirrors),
	}
	if c.LLMAPIKey != "" && len(c.LLMModels) > 0 {
		a.LLM = engine.NewModelChain(c)
		a.Classifier = segments.NewClassifier(a.LLM)
		a.Summarizer = summary.New(a.LLM)
		slog.Info("llm chain ready", slog.Any("models", a.LLM.Models()))
	}

	innertube := sources.NewInnertube()
	a.Comments = sources.CommentChain{innertube, a.Mirror}

	strategies := []transcript.Strategy{
		innertube,
		sources.NewDirect(),
		a.Static,
		a.Mirror,
		sources.NewLyrics(a.Static, sources.NewLRCLib(), a.generator()),
	}
	if c.BridgeAddr != "" {
		a.channel = bridge.NewChannel(c.BridgeTimeout)
		a.Interceptor = sources.NewInterceptor(c.InterceptTimeout)
		a.Bridge = bridge.NewServer(a.channel, a.Interceptor)
		strategies = append(strategies,
			a.Interceptor,
			sources.NewDOM(bridge.NewPageDriver(a.channel)),
		)
	}
	if c.OpenAIAPIKey != "" {
		strategies = append(strategies, sources.NewSTT(sources.NewYTDLPAudio(), sources.NewWhisper(c.OpenAIAPIKey)))
	}

	m := transcript.NewManager(strategies, transcript.WithDefaultTimeout(c.StrategyTimeout))
	a.Service = transcript.NewService(m, a.Cache, a.History)
	slog.Info("transcript strategies ready",
		slog.Int("count", len(m.Strategies())),
		slog.Duration("cache_ttl", a.Cache.TTL()))
	return a, nil
}

// generator returns the LLM chain as a sources.Generator, or nil.
func (a *App) generator() sources.Generator {
	if a.LLM == nil {
		return nil
	}
	return a.LLM
}

// OpenStore picks the L2 store: Redis, then Postgres, then SQLite. A backend
// that fails to open is skipped; the last resort is an in-memory store.
func OpenStore(ctx context.Context, c engine.Config) cache.Store {
	if c.RedisURL != "" {
		s, err := cache.ConnectRedis(ctx, c.RedisURL, c.CacheTTL)
		if err == nil {
			return s
		}
		slog.Warn("cache: redis unavailable", slog.Any("error", err))
	}
	if c.DatabaseURL != "" {
		s, err := cache.ConnectPostgres(ctx, c.DatabaseURL)
		if err == nil {
			slog.Info("cache: L2 postgres connected")
			return s
		}
		slog.Warn("cache: postgres unavailable", slog.Any("error", err))
	}
	path := c.CacheDBPath
	if path == "" {
		path = filepath.Join(xdg.CacheHome, "go_transcript", "cache.db")
	}
	s, err := cache.OpenSQLite(path)
	if err == nil {
		slog.Info("cache: L2 sqlite opened", slog.String("path", path))
		return s
	}
	slog.Warn("cache: sqlite unavailable, using memory", slog.Any("error", err))
	return cache.NewMemoryStore()
}

// Close stops the bridge side and releases the store.
func (a *App) Close() error {
	var errs []error
	if a.Interceptor != nil {
		a.Interceptor.Close()
	}
	if a.channel != nil {
		a.channel.Close()
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	return errors.Join(errs...)
}
