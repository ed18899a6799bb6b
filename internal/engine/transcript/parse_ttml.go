package transcript

import (
	"regexp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

var (
	ttmlParaRe  = regexp.MustCompile(`(?s)<p\b([^>]*)>(.*?)</p>`)
	ttmlBeginRe = regexp.MustCompile(`\bbegin="([^"]*)"`)
	ttmlEndRe   = regexp.MustCompile(`\bend="([^"]*)"`)
	ttmlDurRe   = regexp.MustCompile(`\bdur="([^"]*)"`)
	ttmlBreakRe = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// ParseTTML converts TTML <p begin end> paragraphs. A dur attribute is used
// when end is missing.
func ParseTTML(data []byte) []Segment {
	var segs []Segment
	for _, m := range ttmlParaRe.FindAllSubmatch(data, -1) {
		attrs := m[1]
		bm := ttmlBeginRe.FindSubmatch(attrs)
		if bm == nil {
			continue
		}
		start, ok := ParseTimestamp(string(bm[1]))
		if !ok {
			continue
		}
		var dur float64
		if em := ttmlEndRe.FindSubmatch(attrs); em != nil {
			if end, ok := ParseTimestamp(string(em[1])); ok {
				dur = end - start
			}
		} else if dm := ttmlDurRe.FindSubmatch(attrs); dm != nil {
			dur, _ = ParseTimestamp(string(dm[1]))
		}
		text := ttmlBreakRe.ReplaceAll(m[2], []byte(" "))
		segs = appendSegment(segs, start, dur, engine.CleanCaption(string(text)))
	}
	return segs
}
