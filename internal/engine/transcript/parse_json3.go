package transcript

import (
	"encoding/json"
	"strings"
)

// rawJSON3 is the timedtext fmt=json3 payload.
type rawJSON3 struct {
	WireMagic string     `json:"wireMagic,omitempty"`
	Events    []rawEvent `json:"events"`
}

type rawEvent struct {
	TStartMs    *float64 `json:"tStartMs,omitempty"`
	DDurationMs *float64 `json:"dDurationMs,omitempty"`
	Segs        []rawSeg `json:"segs,omitempty"`
}

type rawSeg struct {
	Utf8 string `json:"utf8"`
}

// ParseJSON3 converts a json3 event stream. Events without segs are timing
// markers and are skipped.
func ParseJSON3(data []byte) []Segment {
	var raw rawJSON3
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	var segs []Segment
	for _, ev := range raw.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.Utf8)
		}
		var start, dur float64
		if ev.TStartMs != nil {
			start = *ev.TStartMs / 1000
		}
		if ev.DDurationMs != nil {
			dur = *ev.DDurationMs / 1000
		}
		text := strings.ReplaceAll(sb.String(), "\n", " ")
		segs = appendSegment(segs, start, dur, text)
	}
	return segs
}
