package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// HistoryLimit caps the rolling history list.
const HistoryLimit = 100

const historyKey = "history"

// HistoryEntry is one fetched video.
type HistoryEntry struct {
	VideoID  string    `json:"videoId"`
	Title    string    `json:"title,omitempty"`
	Lang     string    `json:"lang,omitempty"`
	Strategy string    `json:"strategy,omitempty"`
	Segments int       `json:"segments,omitempty"`
	At       time.Time `json:"at"`
}

// History is a newest-first list persisted as one Store value.
type History struct {
	mu    sync.Mutex
	store Store
	limit int
}

// NewHistory creates a History over store.
func NewHistory(store Store) *History {
	return &History{store: store, limit: HistoryLimit}
}

// Add puts e at the front, dropping an older entry for the same video and
// anything past the limit.
func (h *History) Add(ctx context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, err := h.load(ctx)
	if err != nil {
		return err
	}
	out := make([]HistoryEntry, 0, len(list)+1)
	out = append(out, e)
	for _, old := range list {
		if old.VideoID != e.VideoID {
			out = append(out, old)
		}
	}
	if len(out) > h.limit {
		out = out[:h.limit]
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return h.store.Set(ctx, historyKey, data)
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (h *History) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Clear drops the whole history.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Delete(ctx, historyKey)
}

func (h *History) load(ctx context.Context) ([]HistoryEntry, error) {
	data, ok, err := h.store.Get(ctx, historyKey)
	if err != nil || !ok {
		return nil, err
	}
	var list []HistoryEntry
	if json.Unmarshal(data, &list) != nil {
		return nil, nil // corrupt list starts over
	}
	return list, nil
}
