package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/cache"
)

// ErrInvalidVideoID is returned for input that is neither an id nor a video URL.
var ErrInvalidVideoID = errors.New("invalid video id")

// Options for Service.Fetch.
type Options struct {
	Method  string        // preferred strategy name or "auto"
	Timeout time.Duration // per-strategy cap; see FetchOptions.Timeout
	NoCache bool          // skip the cache read; the result is still stored
}

// Service fronts the Manager with the video cache and history.
type Service struct {
	manager *Manager
	cache   *cache.VideoCache // nil disables caching
	history *cache.History    // nil disables history
}

// NewService wires a Service. cache and history may be nil.
func NewService(m *Manager, c *cache.VideoCache, h *cache.History) *Service {
	return &Service{manager: m, cache: c, history: h}
}

// Manager exposes the underlying strategy manager.
func (s *Service) Manager() *Manager { return s.manager }

// Fetch returns the transcript of video (an id or a URL) in lang.
// A cached result has Strategy "cache".
func (s *Service) Fetch(ctx context.Context, video, lang string, opts Options) (*Result, error) {
	videoID, ok := ParseVideoID(video)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVideoID, video)
	}
	if lang == "" {
		lang = DefaultLang
	}
	engine.IncrTranscriptRequests()
	key := cache.TranscriptKey(videoID, lang)

	if s.cache != nil && !opts.NoCache {
		var segs []Segment
		if s.cache.GetJSON(ctx, key, &segs) && len(segs) > 0 {
			slog.Debug("transcript: cache hit", slog.String("video", videoID), slog.String("lang", lang))
			return &Result{Segments: segs, Strategy: "cache"}, nil
		}
	}

	res, err := s.manager.Fetch(ctx, videoID, lang, FetchOptions{Preferred: opts.Method, Timeout: opts.Timeout})
	if err != nil {
		engine.IncrTranscriptFailures()
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, res.Segments); err != nil {
			slog.Warn("transcript: cache store failed", slog.String("video", videoID), slog.Any("error", err))
		}
	}
	if s.history != nil {
		entry := cache.HistoryEntry{
			VideoID:  videoID,
			Lang:     lang,
			Strategy: res.Strategy,
			Segments: len(res.Segments),
			At:       time.Now().UTC(),
		}
		if err := s.history.Add(ctx, entry); err != nil {
			slog.Warn("transcript: history append failed", slog.Any("error", err))
		}
	}
	return res, nil
}
