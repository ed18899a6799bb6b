package transcript

import (
	"regexp"
	"strconv"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// xmlTextRe matches legacy srv1 <text start dur> elements.
var xmlTextRe = regexp.MustCompile(`(?s)<text\s+start="([\d.]+)"(?:\s+dur="([\d.]+)")?[^>]*>(.*?)</text>`)

// srv3 uses <p t="ms" d="ms">, with optional <s> word children.
var srv3ParaRe = regexp.MustCompile(`(?s)<p\s+t="(\d+)"(?:\s+d="(\d+)")?[^>]*>(.*?)</p>`)

// ParseXML converts legacy timedtext XML (srv1) and the srv3 variant.
func ParseXML(data []byte) []Segment {
	var segs []Segment
	for _, m := range xmlTextRe.FindAllSubmatch(data, -1) {
		start, err := strconv.ParseFloat(string(m[1]), 64)
		if err != nil {
			continue
		}
		dur, _ := strconv.ParseFloat(string(m[2]), 64)
		segs = appendSegment(segs, start, dur, engine.CleanCaption(string(m[3])))
	}
	if len(segs) > 0 {
		return segs
	}
	for _, m := range srv3ParaRe.FindAllSubmatch(data, -1) {
		startMs, err := strconv.ParseFloat(string(m[1]), 64)
		if err != nil {
			continue
		}
		durMs, _ := strconv.ParseFloat(string(m[2]), 64)
		segs = appendSegment(segs, startMs/1000, durMs/1000, engine.CleanCaption(string(m[3])))
	}
	return segs
}
