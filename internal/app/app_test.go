package app

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/cache"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

func strategyNames(a *App) []string {
	var names []string
	for _, s := range a.Service.Manager().Strategies() {
		names = append(names, s.Name)
	}
	return names
}

func testConfig(t *testing.T) engine.Config {
	t.Helper()
	return engine.Config{
		CacheDBPath:     filepath.Join(t.TempDir(), "cache.db"),
		CacheTTL:        engine.Cfg.CacheTTL,
		CacheMaxEntries: 100,
	}
}

func TestNewWithoutBridge(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	want := []string{sources.NameInnertube, sources.NameDirect, sources.NameStatic, sources.NameMirror, sources.NameLyrics}
	if got := strategyNames(a); !slices.Equal(got, want) {
		t.Errorf("strategies = %v, want %v", got, want)
	}
	if a.Bridge != nil || a.Interceptor != nil {
		t.Error("bridge components built without BridgeAddr")
	}
	if a.Classifier != nil || a.Summarizer != nil {
		t.Error("LLM components built without LLM_API_KEY")
	}
	if chain, ok := a.Comments.(sources.CommentChain); !ok || len(chain) != 2 {
		t.Errorf("comment sources = %#v, want innertube then mirror", a.Comments)
	}
	if a.Cache.TTL() != engine.Cfg.CacheTTL {
		t.Errorf("cache TTL = %v", a.Cache.TTL())
	}
}

func TestNewWithLLM(t *testing.T) {
	c := testConfig(t)
	c.LLMAPIKey = "test-key"
	c.LLMModels = []string{"model-a", "model-b"}
	a, err := New(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.Classifier == nil || a.Summarizer == nil {
		t.Fatal("LLM components missing")
	}
	if got := a.LLM.Models(); !slices.Equal(got, c.LLMModels) {
		t.Errorf("models = %v", got)
	}
}

func TestNewWithBridgeAndSTT(t *testing.T) {
	c := testConfig(t)
	c.BridgeAddr = "127.0.0.1:0"
	c.OpenAIAPIKey = "sk-test"
	a, err := New(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	want := []string{
		sources.NameIntercept, sources.NameInnertube, sources.NameDirect, sources.NameStatic,
		sources.NameMirror, sources.NameDOM, sources.NameLyrics, sources.NameSTT,
	}
	if got := strategyNames(a); !slices.Equal(got, want) {
		t.Errorf("strategies = %v, want %v", got, want)
	}
	if a.Bridge == nil || a.Interceptor == nil {
		t.Error("bridge components missing")
	}
}

func TestOpenStoreSQLiteFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	s := OpenStore(context.Background(), engine.Config{CacheDBPath: path})
	defer s.Close()

	if _, ok := s.(*cache.MemoryStore); ok {
		t.Fatal("fell back to memory; want sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("sqlite file not created: %v", err)
	}
}

func TestOpenStoreMemoryFallback(t *testing.T) {
	// A directory path cannot be opened as a database file.
	s := OpenStore(context.Background(), engine.Config{CacheDBPath: t.TempDir()})
	defer s.Close()

	if _, ok := s.(*cache.MemoryStore); !ok {
		t.Errorf("store = %T, want *cache.MemoryStore", s)
	}
}
