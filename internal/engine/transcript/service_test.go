package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/engine/cache"
)

func TestServiceFetchCachesAndRecordsHistory(t *testing.T) {
	ctx := context.Background()
	var calls []string
	m := NewManager([]Strategy{&fakeStrategy{name: "direct", priority: 2, segs: okSegs, calls: &calls}})
	store := cache.NewMemoryStore()
	hist := cache.NewHistory(store)
	svc := NewService(m, cache.New(store), hist)

	res, err := svc.Fetch(ctx, "https://youtu.be/dQw4w9WgXcQ", "", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "direct" {
		t.Errorf("strategy = %s", res.Strategy)
	}

	res, err = svc.Fetch(ctx, "dQw4w9WgXcQ", "en", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != "cache" || len(res.Segments) != 1 {
		t.Errorf("second fetch = %+v, want cache hit", res)
	}
	if len(calls) != 1 {
		t.Errorf("strategy calls = %d, want 1", len(calls))
	}

	if _, err := svc.Fetch(ctx, "dQw4w9WgXcQ", "en", Options{NoCache: true}); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Errorf("NoCache should bypass read; calls = %d", len(calls))
	}

	entries, _ := hist.List(ctx, 0)
	if len(entries) != 1 || entries[0].VideoID != "dQw4w9WgXcQ" || entries[0].Strategy != "direct" {
		t.Errorf("history = %+v", entries)
	}
	if _, ok, _ := store.Get(ctx, cache.TranscriptKey("dQw4w9WgXcQ", "en")); !ok {
		t.Error("transcript not persisted under its key")
	}
}

func TestServiceInvalidID(t *testing.T) {
	svc := NewService(NewManager(nil), nil, nil)
	if _, err := svc.Fetch(context.Background(), "not a video", "en", Options{}); !errors.Is(err, ErrInvalidVideoID) {
		t.Errorf("err = %v", err)
	}
}

func TestServiceFailureNotCached(t *testing.T) {
	ctx := context.Background()
	m := NewManager([]Strategy{&fakeStrategy{name: "x", err: errors.New("nope")}})
	store := cache.NewMemoryStore()
	svc := NewService(m, cache.New(store), cache.NewHistory(store))

	if _, err := svc.Fetch(ctx, "dQw4w9WgXcQ", "en", Options{}); err == nil || err.Error() != "nope" {
		t.Fatalf("err = %v", err)
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Errorf("failure should not write, got %v", keys)
	}
}
