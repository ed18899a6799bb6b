package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests atomic.Int64
	TranscriptFailures atomic.Int64
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	BridgeRequests     atomic.Int64
	BridgeTimeouts     atomic.Int64
	Captures           atomic.Int64
}

// strategyCounters holds per-strategy outcome counters.
type strategyCounters struct {
	attempts  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	timeouts  atomic.Int64
}

var strategyMetrics sync.Map // name → *strategyCounters

func countersFor(name string) *strategyCounters {
	if v, ok := strategyMetrics.Load(name); ok {
		return v.(*strategyCounters)
	}
	v, _ := strategyMetrics.LoadOrStore(name, &strategyCounters{})
	return v.(*strategyCounters)
}

// StrategyOutcome is the result of one strategy attempt.
type StrategyOutcome int

const (
	OutcomeSuccess StrategyOutcome = iota
	OutcomeFailure
	OutcomeTimeout
)

// RecordStrategy counts one attempt of the named strategy.
func RecordStrategy(name string, outcome StrategyOutcome) {
	c := countersFor(name)
	c.attempts.Add(1)
	switch outcome {
	case OutcomeSuccess:
		c.successes.Add(1)
	case OutcomeTimeout:
		c.timeouts.Add(1)
		c.failures.Add(1)
	default:
		c.failures.Add(1)
	}
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	m := map[string]int64{
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"transcript_failures": metrics.TranscriptFailures.Load(),
		"cache_hits":          metrics.CacheHits.Load(),
		"cache_misses":        metrics.CacheMisses.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"bridge_requests":     metrics.BridgeRequests.Load(),
		"bridge_timeouts":     metrics.BridgeTimeouts.Load(),
		"intercept_captures":  metrics.Captures.Load(),
	}
	strategyMetrics.Range(func(k, v any) bool {
		name := k.(string)
		c := v.(*strategyCounters)
		m["strategy_"+name+"_attempts"] = c.attempts.Load()
		m["strategy_"+name+"_successes"] = c.successes.Load()
		m["strategy_"+name+"_failures"] = c.failures.Load()
		m["strategy_"+name+"_timeouts"] = c.timeouts.Load()
		return true
	})
	return m
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptFailures() { metrics.TranscriptFailures.Add(1) }
func IncrCacheHit()           { metrics.CacheHits.Add(1) }
func IncrCacheMiss()          { metrics.CacheMisses.Add(1) }
func IncrBridgeRequests()     { metrics.BridgeRequests.Add(1) }
func IncrBridgeTimeouts()     { metrics.BridgeTimeouts.Add(1) }
func IncrCaptures()           { metrics.Captures.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
