package segments

import (
	"fmt"
	"regexp"
	"strings"
)

// Match is one heuristic hit in transcript text.
type Match struct {
	Category Label  `json:"category"`
	Pattern  int    `json:"pattern"`
	Text     string `json:"text"`
	Index    int    `json:"index"`
}

type detector struct {
	category Label
	patterns []*regexp.Regexp
}

func mustPatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// detectors run in hint order.
var detectors = []detector{
	{LabelSponsor, mustPatterns(
		`\b(?:sponsored\s+by|brought\s+to\s+you\s+by|thanks\s+to\s+(?:our\s+)?sponsor|partnered\s+with|in\s+partnership\s+with|this\s+video\s+is\s+sponsored|today'?s\s+sponsor)\b`,
		`\b(?:use\s+(?:code|promo\s+code)|discount\s+code|coupon\s+code|affiliate\s+link)\b`,
		`\b(?:get\s+\d+%\s+off|save\s+\d+%|special\s+offer|limited\s+time\s+offer)`,
	)},
	{LabelSelfPromo, mustPatterns(
		`\b(?:my\s+(?:course|merch|merchandise|patreon|website|book|app|product)|check\s+out\s+my|link\s+in\s+(?:the\s+)?description|available\s+on\s+my)\b`,
		`\b(?:join\s+my\s+(?:discord|community|membership)|become\s+a\s+(?:member|patron)|support\s+me\s+on)\b`,
		`\b(?:buy\s+my|purchase\s+my|get\s+my|download\s+my)\b`,
	)},
	{LabelInteraction, mustPatterns(
		`\b(?:like\s+and\s+subscribe|smash\s+that\s+like|hit\s+the\s+(?:like\s+)?button|don'?t\s+forget\s+to\s+(?:like|subscribe))\b`,
		`\b(?:subscribe\s+(?:for\s+more|to\s+my\s+channel)|turn\s+on\s+notifications|hit\s+the\s+bell|enable\s+notifications)\b`,
		`\b(?:leave\s+a\s+comment|comment\s+(?:below|down)|let\s+me\s+know\s+in\s+the\s+comments)\b`,
		`\b(?:share\s+this\s+video|follow\s+me\s+on|check\s+out\s+my\s+(?:instagram|twitter|tiktok))\b`,
	)},
	{LabelIntro, mustPatterns(
		`\b(?:hey\s+(?:guys|everyone|folks)|what'?s\s+up\s+(?:guys|everyone)|welcome\s+back|hello\s+(?:everyone|there))\b`,
		`\b(?:in\s+today'?s\s+video|today\s+we'?re\s+(?:going\s+to|gonna)|this\s+video\s+is\s+about)\b`,
		`\b(?:before\s+we\s+(?:begin|start)|let'?s\s+get\s+(?:started|into\s+it))\b`,
	)},
	{LabelOutro, mustPatterns(
		`\b(?:that'?s\s+(?:it|all)\s+for\s+(?:today|now)|thanks\s+for\s+watching|see\s+you\s+(?:next\s+time|in\s+the\s+next))\b`,
		`\b(?:until\s+next\s+time|catch\s+you\s+later|peace\s+out|take\s+care)\b`,
		`\b(?:if\s+you\s+enjoyed|hope\s+you\s+enjoyed|enjoyed\s+this\s+video)\b`,
	)},
	{LabelPreview, mustPatterns(
		`\b(?:coming\s+up|up\s+next|later\s+in\s+(?:this\s+)?video|stick\s+around\s+(?:for|to\s+see))\b`,
		`\b(?:previously\s+on|last\s+time|in\s+the\s+(?:last|previous)\s+(?:video|episode))\b`,
		`\b(?:recap|let'?s\s+recap|quick\s+recap)\b`,
	)},
	{LabelFiller, mustPatterns(
		`\b(?:by\s+the\s+way|anyway|so\s+yeah|um|uh|like\s+I\s+said)\b`,
		`\b(?:off\s+topic|random\s+(?:thought|tangent)|side\s+note)\b`,
		`\b(?:fun\s+fact|interesting\s+(?:fact|story)|quick\s+story)\b`,
	)},
	{LabelHook, mustPatterns(
		`\b(?:watch\s+(?:this|what\s+happens)|you\s+won'?t\s+believe|wait\s+(?:for\s+it|till\s+the\s+end))\b`,
		`\b(?:before\s+we\s+(?:get\s+)?start|first\s+things\s+first|quick\s+announcement)\b`,
		`\b(?:in\s+this\s+video|today\s+I'?m\s+(?:going\s+to|gonna)|we'?re\s+going\s+to)\b`,
	)},
}

// detect reports the first hit of each pattern of d.
func (d detector) detect(text string) []Match {
	var out []Match
	for i, re := range d.patterns {
		if loc := re.FindStringIndex(text); loc != nil {
			out = append(out, Match{Category: d.category, Pattern: i, Text: text[loc[0]:loc[1]], Index: loc[0]})
		}
	}
	return out
}

func detectCategory(l Label, text string) []Match {
	for _, d := range detectors {
		if d.category == l {
			return d.detect(text)
		}
	}
	return nil
}

func DetectSponsor(text string) []Match     { return detectCategory(LabelSponsor, text) }
func DetectSelfPromo(text string) []Match   { return detectCategory(LabelSelfPromo, text) }
func DetectInteraction(text string) []Match { return detectCategory(LabelInteraction, text) }
func DetectIntro(text string) []Match       { return detectCategory(LabelIntro, text) }
func DetectOutro(text string) []Match       { return detectCategory(LabelOutro, text) }
func DetectPreview(text string) []Match     { return detectCategory(LabelPreview, text) }
func DetectFiller(text string) []Match      { return detectCategory(LabelFiller, text) }
func DetectHook(text string) []Match        { return detectCategory(LabelHook, text) }

// Detect runs every detector over text, grouped by category in hint order.
func Detect(text string) []Match {
	var out []Match
	for _, d := range detectors {
		out = append(out, d.detect(text)...)
	}
	return out
}

// BuildHints renders matches as one line per category:
//
//	[SPONSOR] Detected 2 pattern(s): sponsored by, use code
//
// Hints only ever extend the classification prompt; they never decide a label.
func BuildHints(matches []Match) string {
	var lines []string
	for _, d := range detectors {
		var texts []string
		for _, m := range matches {
			if m.Category == d.category {
				texts = append(texts, m.Text)
			}
		}
		if len(texts) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] Detected %d pattern(s): %s",
			strings.ToUpper(string(d.category)), len(texts), strings.Join(texts, ", ")))
	}
	return strings.Join(lines, "\n")
}

// Hints is BuildHints(Detect(text)).
func Hints(text string) string { return BuildHints(Detect(text)) }
