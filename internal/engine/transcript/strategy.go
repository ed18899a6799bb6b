package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Strategy is one self-contained way of acquiring a transcript.
// Lower Priority values are tried first.
type Strategy interface {
	Name() string
	Priority() int
	Extract(ctx context.Context, videoID, lang string) ([]Segment, error)
}

// TimeoutHint is implemented by strategies whose natural duration differs
// from the manager default: interception waits seconds, speech-to-text minutes.
type TimeoutHint interface {
	Timeout() time.Duration
}

var (
	ErrEmptyTranscript = errors.New("empty transcript")
	ErrNoTracks        = errors.New("no caption tracks")
	ErrNotMusic        = errors.New("not a music video")
	ErrNoStrategies    = errors.New("no transcript strategies registered")
	ErrStrategyTimeout = errors.New("timeout")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// StrategyError is one failed attempt.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string { return e.Err.Error() }
func (e *StrategyError) Unwrap() error { return e.Err }

// AllFailedError is returned when every strategy failed. Its message is the
// last failure's message.
type AllFailedError struct {
	Attempts []Attempt
	Last     error
}

func (e *AllFailedError) Error() string {
	if e.Last == nil {
		return "all transcript fetch strategies failed"
	}
	return e.Last.Error()
}

func (e *AllFailedError) Unwrap() error { return e.Last }

// Summary lists every attempt as "name: error".
func (e *AllFailedError) Summary() string {
	s := ""
	for i, a := range e.Attempts {
		if i > 0 {
			s += "; "
		}
		s += fmt.Sprintf("%s: %s", a.Strategy, a.Error)
	}
	return s
}

// Attempt records one strategy try for diagnostics.
type Attempt struct {
	Strategy string        `json:"strategy"`
	Elapsed  time.Duration `json:"elapsed"`
	Segments int           `json:"segments,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Result is a successful fetch.
type Result struct {
	Segments []Segment `json:"segments"`
	Strategy string    `json:"strategy"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// StrategyInfo describes a registered strategy.
type StrategyInfo struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}
