package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModels          []string
	LLMTemperature     float64
	LLMMaxTokens       int
	OpenAIAPIKey       string
	FetchTimeout       time.Duration
	StrategyTimeout    time.Duration
	InterceptTimeout   time.Duration
	DefaultLang        string
	PreferredMethod    string // strategy name or "auto"
	CacheTTL           time.Duration
	CacheMaxEntries    int
	RedisURL           string // L2 store, first choice
	DatabaseURL        string // Postgres L2 store when RedisURL is empty
	CacheDBPath        string // SQLite L2 store otherwise; empty = XDG cache dir
	BridgeAddr         string // empty = bridge disabled
	BridgeTimeout      time.Duration
	MirrorsFile        string
	HTTPClient         *http.Client
	BrowserClient      *BrowserClient // nil = watch page fetched with HTTPClient
}

var cfg = Config{
	HTTPClient:       NewFetchClient(defaultFetchTimeout),
	StrategyTimeout:  30 * time.Second,
	InterceptTimeout: 3 * time.Second,
	DefaultLang:      "en",
	CacheTTL:         24 * time.Hour,
}

// Cfg exposes the engine configuration for sub-packages (sources, segments, cache).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration. Without an
// HTTPClient one is built from FetchTimeout.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = NewFetchClient(c.FetchTimeout)
	}
	if c.DefaultLang == "" {
		c.DefaultLang = "en"
	}
	cfg = c
	Cfg = &cfg
}
