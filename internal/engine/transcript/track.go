package transcript

import "strings"

// DefaultLang is the fallback language prefix used by track selection.
const DefaultLang = "en"

// CaptionTrack describes one caption track offered for a video.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind,omitempty"` // "asr" = auto-generated
	Name         string `json:"name,omitempty"`
}

// IsASR reports whether the track is machine-generated.
func (t CaptionTrack) IsASR() bool { return strings.EqualFold(t.Kind, "asr") }

// SelectTrack picks a track for lang:
//  1. exact language, manual track
//  2. exact language, any kind
//  3. first track whose code starts with DefaultLang
//  4. first track
func SelectTrack(tracks []CaptionTrack, lang string) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}
	for _, t := range tracks {
		if t.LanguageCode == lang && !t.IsASR() {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, DefaultLang) {
			return t, true
		}
	}
	return tracks[0], true
}
