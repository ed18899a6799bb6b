// Package sources implements the transcript extraction strategies: page
// network interception, the Innertube and timedtext APIs, watch page
// parsing, Invidious/Piped mirrors, transcript panel automation, lyrics
// lookup and speech-to-text.
package sources

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// Strategy names and their default priorities. Lower runs first.
const (
	NameIntercept = "intercept"
	NameInnertube = "innertube"
	NameDirect    = "direct"
	NameStatic    = "static"
	NameMirror    = "mirror"
	NameDOM       = "dom"
	NameLyrics    = "lyrics"
	NameSTT       = "stt"

	PriorityIntercept = 0
	PriorityInnertube = 1
	PriorityDirect    = 2
	PriorityStatic    = 3
	PriorityMirror    = 4
	PriorityDOM       = 10
	PriorityLyrics    = 20
	PrioritySTT       = 30
)

// fetchCaptions downloads a caption URL and parses it by its content type.
func fetchCaptions(ctx context.Context, captionURL string, headers map[string]string) ([]transcript.Segment, error) {
	f, err := engine.FetchBytes(ctx, captionURL, headers)
	if err != nil {
		return nil, err
	}
	segs := transcript.Parse(f.ContentType, f.Body)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %d bytes of %q", transcript.ErrEmptyTranscript, len(f.Body), f.ContentType)
	}
	return segs, nil
}
