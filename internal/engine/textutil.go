package engine

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/net/html"
)

// User-Agent strings used across HTTP clients.
const (
	UserAgentBot    = "GoTranscript/1.0"
	UserAgentChrome = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// DecodeEntities decodes HTML character references, including double-escaped
// ones such as "&amp;#39;" that timedtext payloads carry.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return strings.ReplaceAll(s, "\u00a0", " ")
	}
	out := html.UnescapeString(s)
	if strings.Contains(out, "&") && out != s {
		out = html.UnescapeString(out)
	}
	return strings.ReplaceAll(out, "\u00a0", " ")
}

// CleanCaption turns a raw caption fragment into display text. Tags are
// stripped again after decoding since timedtext escapes its <font> markup.
func CleanCaption(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = DecodeEntities(s)
	s = htmlTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}
