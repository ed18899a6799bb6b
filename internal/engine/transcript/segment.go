// Package transcript holds the normalized transcript model, the caption
// payload parsers, the strategy contract and the fallback orchestrator.
package transcript

import (
	"sort"
	"strings"
)

// Segment is one timestamped unit of caption text.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// End returns Start+Duration.
func (s Segment) End() float64 { return s.Start + s.Duration }

// SortSegments returns a copy of segs ordered by Start.
func SortSegments(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	copy(out, segs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// TotalDuration is the end of the last segment in start order, 0 when empty.
func TotalDuration(segs []Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	last := segs[0]
	for _, s := range segs[1:] {
		if s.Start >= last.Start {
			last = s
		}
	}
	return last.End()
}

// Text joins all segment texts with single spaces.
func Text(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// appendSegment drops empty text; parsers never emit it.
func appendSegment(segs []Segment, start, duration float64, text string) []Segment {
	text = strings.TrimSpace(text)
	if text == "" {
		return segs
	}
	if duration < 0 {
		duration = 0
	}
	if start < 0 {
		start = 0
	}
	return append(segs, Segment{Start: start, Duration: duration, Text: text})
}
