package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// SchemaVersion tags every persisted entry; entries with another version are
// treated as absent.
const SchemaVersion = 1

// DefaultTTL is the freshness window of transcripts and video data.
const DefaultTTL = 24 * time.Hour

// envelope is the persisted form of an entry.
type envelope struct {
	V    int             `json:"v"`
	TS   int64           `json:"ts"` // unix millis at write
	Data json.RawMessage `json:"data"`
}

// l1Entry is an in-process entry. writtenAt drives freshness; lastAccess only
// drives eviction.
type l1Entry struct {
	data       []byte
	writtenAt  time.Time
	lastAccess atomic.Int64
}

// VideoCache is L1 (sync.Map) over an optional L2 Store. Freshness is judged
// on read only.
type VideoCache struct {
	l1         sync.Map // key → *l1Entry
	l1Count    atomic.Int64
	store      Store // nil = L1 only
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	hits       atomic.Int64
	misses     atomic.Int64
}

// Option configures a VideoCache.
type Option func(*VideoCache)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(c *VideoCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithMaxEntries bounds L1; 0 means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *VideoCache) { c.maxEntries = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *VideoCache) { c.now = now }
}

// New creates a VideoCache over store (may be nil).
func New(store Store, opts ...Option) *VideoCache {
	c := &VideoCache{store: store, ttl: DefaultTTL, maxEntries: 1000, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *VideoCache) TTL() time.Duration { return c.ttl }

func (c *VideoCache) fresh(writtenAt time.Time) bool {
	return c.now().Sub(writtenAt) <= c.ttl
}

// Get returns the value for key. L1 is checked first; an L2 hit that is
// fresh and of the current schema is promoted into L1, anything else found
// in L2 is deleted.
func (c *VideoCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.l1.Load(key); ok {
		e := v.(*l1Entry)
		if c.fresh(e.writtenAt) {
			e.lastAccess.Store(c.now().UnixNano())
			slog.Debug("cache: L1 hit", slog.String("key", key))
			c.hit()
			return e.data, true
		}
		c.deleteL1(key)
	}

	if c.store == nil {
		c.miss()
		return nil, false
	}

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Debug("cache: L2 get failed", slog.String("key", key), slog.Any("error", err))
		c.miss()
		return nil, false
	}
	if !ok {
		c.miss()
		return nil, false
	}

	var env envelope
	if json.Unmarshal(raw, &env) != nil || env.V != SchemaVersion || !c.fresh(time.UnixMilli(env.TS)) {
		if err := c.store.Delete(ctx, key); err != nil {
			slog.Debug("cache: L2 stale delete failed", slog.String("key", key), slog.Any("error", err))
		}
		c.miss()
		return nil, false
	}

	slog.Debug("cache: L2 hit", slog.String("key", key))
	c.storeL1(key, env.Data, time.UnixMilli(env.TS))
	c.hit()
	return env.Data, true
}

// Set writes value through both tiers, last write wins.
func (c *VideoCache) Set(ctx context.Context, key string, value []byte) error {
	now := c.now()
	c.storeL1(key, value, now)
	if c.store == nil {
		return nil
	}
	raw, err := json.Marshal(envelope{V: SchemaVersion, TS: now.UnixMilli(), Data: value})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw)
}

// GetJSON decodes a cached JSON value into out.
func (c *VideoCache) GetJSON(ctx context.Context, key string, out any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// SetJSON encodes v and stores it.
func (c *VideoCache) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data)
}

// Delete removes keys from both tiers.
func (c *VideoCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		c.deleteL1(k)
	}
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, keys...)
}

// ClearVideo removes every data kind cached for one video.
func (c *VideoCache) ClearVideo(ctx context.Context, videoID string) error {
	return c.clearPrefix(ctx, videoKeyPrefix(videoID))
}

// ClearAll removes every per-video entry.
func (c *VideoCache) ClearAll(ctx context.Context) error {
	return c.clearPrefix(ctx, VideoPrefix)
}

func (c *VideoCache) clearPrefix(ctx context.Context, prefix string) error {
	c.l1.Range(func(k, _ any) bool {
		if key := k.(string); len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.deleteL1(key)
		}
		return true
	})
	if c.store == nil {
		return nil
	}
	return c.store.DeletePrefix(ctx, prefix)
}

// Stats returns hit/miss counters.
func (c *VideoCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the persistent tier.
func (c *VideoCache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *VideoCache) hit() {
	c.hits.Add(1)
	engine.IncrCacheHit()
}

func (c *VideoCache) miss() {
	c.misses.Add(1)
	engine.IncrCacheMiss()
}

func (c *VideoCache) storeL1(key string, data []byte, writtenAt time.Time) {
	e := &l1Entry{data: data, writtenAt: writtenAt}
	e.lastAccess.Store(c.now().UnixNano())
	if _, loaded := c.l1.Swap(key, e); !loaded {
		c.l1Count.Add(1)
		c.evictIfNeeded(key)
	}
}

func (c *VideoCache) deleteL1(key string) {
	if _, loaded := c.l1.LoadAndDelete(key); loaded {
		c.l1Count.Add(-1)
	}
}

// evictIfNeeded drops stale entries first, then the least recently
// accessed ones, until L1 is within maxEntries. keep is never evicted.
func (c *VideoCache) evictIfNeeded(keep string) {
	if c.maxEntries <= 0 || c.l1Count.Load() <= int64(c.maxEntries) {
		return
	}

	c.l1.Range(func(k, v any) bool {
		if !c.fresh(v.(*l1Entry).writtenAt) {
			c.deleteL1(k.(string))
		}
		return c.l1Count.Load() > int64(c.maxEntries)
	})

	for c.l1Count.Load() > int64(c.maxEntries) {
		var oldestKey string
		var oldestAt int64
		c.l1.Range(func(k, v any) bool {
			if k.(string) == keep {
				return true
			}
			at := v.(*l1Entry).lastAccess.Load()
			if oldestKey == "" || at < oldestAt {
				oldestKey, oldestAt = k.(string), at
			}
			return true
		})
		if oldestKey == "" {
			return
		}
		c.deleteL1(oldestKey)
	}
}
