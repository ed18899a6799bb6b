package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

// Output formats accepted by Format.
const (
	FormatSegments    = "segments"
	FormatTimestamped = "timestamped"
	FormatPlain       = "plain"
)

// FormatTimestamp renders seconds as m:ss, or h:mm:ss past one hour.
func FormatTimestamp(sec float64) string {
	total := int(sec)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Format renders segments as "[m:ss] text" lines or as plain text.
// Unknown formats fall back to timestamped.
func Format(segs []Segment, format string) string {
	if format == FormatPlain {
		return Text(segs)
	}
	var sb strings.Builder
	for _, s := range segs {
		fmt.Fprintf(&sb, "[%s] %s\n", FormatTimestamp(s.Start), s.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var videoIDInURLRe = regexp.MustCompile(`(?:v=|/shorts/|/embed/|/live/|youtu\.be/)([A-Za-z0-9_-]{11})`)

// ParseVideoID accepts a bare id or a watch/shorts/embed/youtu.be URL.
func ParseVideoID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if videoIDRe.MatchString(s) {
		return s, true
	}
	if m := videoIDInURLRe.FindStringSubmatch(s); len(m) == 2 {
		return m[1], true
	}
	return "", false
}
