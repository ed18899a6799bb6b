// Package segments classifies transcript spans into labelled segments and
// fills the unclassified stretches between them.
package segments

import (
	"regexp"
	"strings"
)

// Label is a segment category code.
type Label string

const (
	LabelSponsor         Label = "sponsor"
	LabelSelfPromo       Label = "selfpromo"
	LabelInteraction     Label = "interaction"
	LabelIntro           Label = "intro"
	LabelOutro           Label = "outro"
	LabelPreview         Label = "preview"
	LabelHook            Label = "hook"
	LabelMusicOffTopic   Label = "music_offtopic"
	LabelHighlight       Label = "poi_highlight"
	LabelFiller          Label = "filler"
	LabelExclusiveAccess Label = "exclusive_access"
	LabelChapter         Label = "chapter"
	LabelContent         Label = "content"
)

// Labels lists every label in display order.
var Labels = []Label{
	LabelSponsor, LabelSelfPromo, LabelInteraction, LabelIntro, LabelOutro,
	LabelPreview, LabelHook, LabelMusicOffTopic, LabelHighlight, LabelFiller,
	LabelExclusiveAccess, LabelChapter, LabelContent,
}

var displayNames = map[Label]string{
	LabelSponsor:         "Sponsor",
	LabelSelfPromo:       "Self Promotion",
	LabelInteraction:     "Interaction Reminder",
	LabelIntro:           "Intro",
	LabelOutro:           "Outro",
	LabelPreview:         "Preview",
	LabelHook:            "Hook",
	LabelMusicOffTopic:   "Music: Off-Topic",
	LabelHighlight:       "Highlight",
	LabelFiller:          "Filler",
	LabelExclusiveAccess: "Exclusive Access",
	LabelChapter:         "Chapter",
	LabelContent:         "Content",
}

// aliases maps normalized display names and variants seen in model output.
var aliases = map[string]Label{
	"self_promotion":                  LabelSelfPromo,
	"self_promotion_unpaid_promotion": LabelSelfPromo,
	"unpaid_self_promotion":           LabelSelfPromo,
	"interaction_reminder":            LabelInteraction,
	"intermission_intro_animation":    LabelIntro,
	"intermission_intro":              LabelIntro,
	"endcards_credits":                LabelOutro,
	"preview_recap":                   LabelPreview,
	"recap":                           LabelPreview,
	"tangents_jokes":                  LabelFiller,
	"filler_tangent":                  LabelFiller,
	"tangent":                         LabelFiller,
	"highlight":                       LabelHighlight,
	"off_topic":                       LabelMusicOffTopic,
	"music_non_music_section":         LabelMusicOffTopic,
	"music_off_topic":                 LabelMusicOffTopic,
	"hook_greetings":                  LabelHook,
	"main_content":                    LabelContent,
	"content_main_video":              LabelContent,
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeLabel maps a code, display name or known alias to its Label.
// ok is false for anything outside the closed set.
func NormalizeLabel(s string) (Label, bool) {
	key := strings.Trim(nonAlnumRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_"), "_")
	if key == "" {
		return "", false
	}
	if _, ok := displayNames[Label(key)]; ok {
		return Label(key), true
	}
	l, ok := aliases[key]
	return l, ok
}

// DisplayName returns the human readable name of l.
func (l Label) DisplayName() string {
	if n, ok := displayNames[l]; ok {
		return n
	}
	return string(l)
}

// Valid reports whether l is in the closed set.
func (l Label) Valid() bool {
	_, ok := displayNames[l]
	return ok
}
