package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// DefaultStrategyTimeout bounds a single strategy attempt.
const DefaultStrategyTimeout = 30 * time.Second

// Manager tries strategies in priority order until one returns segments.
// The order is fixed at construction; only a per-call preference changes it.
type Manager struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDefaultTimeout sets the per-strategy timeout used when a call does not set one.
func WithDefaultTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager sorts strategies by ascending priority; equal priorities keep
// their registration order.
func NewManager(strategies []Strategy, opts ...ManagerOption) *Manager {
	m := &Manager{timeout: DefaultStrategyTimeout, logger: slog.Default()}
	for _, s := range strategies {
		if s != nil {
			m.strategies = append(m.strategies, s)
		}
	}
	sort.SliceStable(m.strategies, func(i, j int) bool {
		return m.strategies[i].Priority() < m.strategies[j].Priority()
	})
	for _, o := range opts {
		o(m)
	}
	return m
}

// Strategies lists registered strategies in default order.
func (m *Manager) Strategies() []StrategyInfo {
	out := make([]StrategyInfo, len(m.strategies))
	for i, s := range m.strategies {
		out[i] = StrategyInfo{Name: s.Name(), Priority: s.Priority()}
	}
	return out
}

// Has reports whether a strategy with this name is registered.
func (m *Manager) Has(name string) bool {
	for _, s := range m.strategies {
		if strings.EqualFold(s.Name(), name) {
			return true
		}
	}
	return false
}

// Order returns the attempt order for a call: the preferred strategy first
// when registered, all others in their default relative order.
func (m *Manager) Order(preferred string) []Strategy {
	out := make([]Strategy, 0, len(m.strategies))
	idx := -1
	if preferred != "" && !strings.EqualFold(preferred, "auto") {
		for i, s := range m.strategies {
			if strings.EqualFold(s.Name(), preferred) {
				idx = i
				break
			}
		}
	}
	if idx >= 0 {
		out = append(out, m.strategies[idx])
	}
	for i, s := range m.strategies {
		if i != idx {
			out = append(out, s)
		}
	}
	return out
}

// FetchOptions tune one Fetch call.
//
// Timeout caps each attempt. It never extends one: a strategy's own limit
// (its TimeoutHint, else the manager default) wins when it is shorter, so a
// longer Timeout is ignored. Zero leaves the strategy limit as is.
type FetchOptions struct {
	Preferred string        // strategy name moved to the front; "" or "auto" keeps the order
	Timeout   time.Duration // per-strategy cap; only shortens
}

// Fetch runs strategies one at a time and returns the first non-empty
// result. When all fail the returned *AllFailedError carries the last
// failure's message.
func (m *Manager) Fetch(ctx context.Context, videoID, lang string, opts FetchOptions) (*Result, error) {
	if len(m.strategies) == 0 {
		return nil, ErrNoStrategies
	}
	if lang == "" {
		lang = DefaultLang
	}

	var (
		attempts []Attempt
		lastErr  error
	)
	for _, s := range m.Order(opts.Preferred) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		timeout := m.timeoutFor(s, opts.Timeout)
		start := time.Now()
		segs, err := m.attempt(ctx, s, videoID, lang, timeout)
		a := Attempt{Strategy: s.Name(), Elapsed: time.Since(start)}

		if err == nil && len(segs) == 0 {
			err = ErrEmptyTranscript
		}
		if err != nil {
			outcome := engine.OutcomeFailure
			if errors.Is(err, ErrStrategyTimeout) {
				outcome = engine.OutcomeTimeout
			}
			engine.RecordStrategy(s.Name(), outcome)
			a.Error = err.Error()
			attempts = append(attempts, a)
			lastErr = &StrategyError{Strategy: s.Name(), Err: err}
			m.logger.Warn("transcript: strategy failed",
				slog.String("strategy", s.Name()),
				slog.String("video", videoID),
				slog.Duration("elapsed", a.Elapsed),
				slog.Any("error", err))
			continue
		}

		engine.RecordStrategy(s.Name(), engine.OutcomeSuccess)
		a.Segments = len(segs)
		attempts = append(attempts, a)
		m.logger.Info("transcript: strategy succeeded",
			slog.String("strategy", s.Name()),
			slog.String("video", videoID),
			slog.Int("segments", len(segs)),
			slog.Duration("elapsed", a.Elapsed))
		return &Result{Segments: segs, Strategy: s.Name(), Attempts: attempts}, nil
	}
	return nil, &AllFailedError{Attempts: attempts, Last: lastErr}
}

// timeoutFor: a strategy's own hint replaces the default; a per-call
// override can only shorten the result.
func (m *Manager) timeoutFor(s Strategy, override time.Duration) time.Duration {
	timeout := m.timeout
	if h, ok := s.(TimeoutHint); ok {
		if d := h.Timeout(); d > 0 {
			timeout = d
		}
	}
	if override > 0 && override < timeout {
		timeout = override
	}
	return timeout
}

type attemptResult struct {
	segs []Segment
	err  error
}

// attempt races one Extract call against timeout. On timeout the call is
// abandoned: its context expires and a late result is dropped.
func (m *Manager) attempt(ctx context.Context, s Strategy, videoID, lang string, timeout time.Duration) ([]Segment, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		segs, err := s.Extract(actx, videoID, lang)
		done <- attemptResult{segs: segs, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrStrategyTimeout
		}
		return r.segs, r.err
	case <-timer.C:
		return nil, ErrStrategyTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
