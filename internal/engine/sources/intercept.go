package sources

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// DefaultInterceptWindow is how long Extract waits for a capture.
const DefaultInterceptWindow = 3 * time.Second

// maxCaptures bounds the capture map; the oldest capture is evicted first.
const maxCaptures = 200

// ErrInterceptorClosed is returned after Close.
var ErrInterceptorClosed = errors.New("interceptor closed")

// ErrNoCapture is returned when nothing was captured within the window.
var ErrNoCapture = errors.New("no intercepted transcript data")

type capture struct {
	segs []transcript.Segment
	at   time.Time
}

// Interceptor holds caption payloads the page agent observed on the wire.
// Extract waits up to the window for a capture of the requested video.
type Interceptor struct {
	window time.Duration

	mu       sync.Mutex
	captures map[string]capture
	order    []string
	waiters  map[string][]chan []transcript.Segment
	closed   bool
}

// NewInterceptor creates an Interceptor; window <= 0 uses DefaultInterceptWindow.
func NewInterceptor(window time.Duration) *Interceptor {
	if window <= 0 {
		window = DefaultInterceptWindow
	}
	return &Interceptor{
		window:   window,
		captures: make(map[string]capture),
		waiters:  make(map[string][]chan []transcript.Segment),
	}
}

func (i *Interceptor) Name() string           { return NameIntercept }
func (i *Interceptor) Priority() int          { return PriorityIntercept }
func (i *Interceptor) Timeout() time.Duration { return i.window }

func captureKey(videoID, lang string) string { return videoID + "_" + lang }

// Capture parses an observed caption response and stores it. It reports the
// number of segments kept; unparseable payloads are dropped.
func (i *Interceptor) Capture(videoID, lang, contentType string, body []byte) int {
	if lang == "" {
		lang = transcript.DefaultLang
	}
	segs := transcript.Parse(contentType, body)
	if len(segs) == 0 {
		return 0
	}
	engine.IncrCaptures()
	key := captureKey(videoID, lang)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return 0
	}
	if _, ok := i.captures[key]; !ok {
		i.order = append(i.order, key)
	}
	i.captures[key] = capture{segs: segs, at: time.Now()}
	for len(i.order) > maxCaptures {
		delete(i.captures, i.order[0])
		i.order = i.order[1:]
	}
	for _, ch := range i.waiters[key] {
		ch <- segs
	}
	delete(i.waiters, key)
	return len(segs)
}

// Lookup returns a stored capture without waiting.
func (i *Interceptor) Lookup(videoID, lang string) ([]transcript.Segment, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	c, ok := i.captures[captureKey(videoID, lang)]
	return c.segs, ok
}

// Extract returns a stored capture or waits for one until the window closes.
func (i *Interceptor) Extract(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	key := captureKey(videoID, lang)

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil, ErrInterceptorClosed
	}
	if c, ok := i.captures[key]; ok {
		i.mu.Unlock()
		return c.segs, nil
	}
	ch := make(chan []transcript.Segment, 1)
	i.waiters[key] = append(i.waiters[key], ch)
	i.mu.Unlock()

	timer := time.NewTimer(i.window)
	defer timer.Stop()
	select {
	case segs, ok := <-ch:
		if !ok {
			return nil, ErrInterceptorClosed
		}
		return segs, nil
	case <-timer.C:
		i.removeWaiter(key, ch)
		return nil, ErrNoCapture
	case <-ctx.Done():
		i.removeWaiter(key, ch)
		return nil, ctx.Err()
	}
}

func (i *Interceptor) removeWaiter(key string, ch chan []transcript.Segment) {
	i.mu.Lock()
	defer i.mu.Unlock()
	list := i.waiters[key]
	for n, c := range list {
		if c == ch {
			i.waiters[key] = append(list[:n], list[n+1:]...)
			break
		}
	}
	if len(i.waiters[key]) == 0 {
		delete(i.waiters, key)
	}
}

// Close wakes every waiter with ErrInterceptorClosed and drops all captures.
func (i *Interceptor) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	for _, list := range i.waiters {
		for _, ch := range list {
			close(ch)
		}
	}
	i.waiters = nil
	i.captures = nil
	i.order = nil
}
