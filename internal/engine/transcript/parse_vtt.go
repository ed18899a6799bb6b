package transcript

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// vttTimingRe matches "00:00:01.000 --> 00:00:03.500" with the hour optional
// and cue settings allowed after the end timestamp. A comma separator is
// accepted for SRT-flavoured input.
var vttTimingRe = regexp.MustCompile(`^\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)

// ParseVTT converts a WebVTT document into segments.
func ParseVTT(data []byte) []Segment {
	var (
		segs       []Segment
		inCue      bool
		start, end float64
		lines      []string
	)
	flush := func() {
		if inCue {
			segs = appendSegment(segs, start, end-start, engine.CleanCaption(strings.Join(lines, " ")))
		}
		inCue = false
		lines = lines[:0]
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if m := vttTimingRe.FindStringSubmatch(line); m != nil {
			flush()
			s, ok1 := ParseTimestamp(m[1])
			e, ok2 := ParseTimestamp(m[2])
			if !ok1 || !ok2 {
				continue
			}
			start, end, inCue = s, e, true
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if !inCue || strings.Contains(line, "-->") {
			// header, NOTE/STYLE blocks, cue identifiers
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	flush()
	return segs
}

// ParseTimestamp parses "HH:MM:SS.mmm", "MM:SS.mmm", "SS.mmm" and TTML
// offsets like "12.5s" or "1500ms" into seconds.
func ParseTimestamp(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	switch {
	case strings.HasSuffix(s, "ms"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "ms"), 64)
		return v / 1000, err == nil
	case strings.HasSuffix(s, "s"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
		return v, err == nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}
