package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// timedtextFormats are tried in order; the first one that yields segments wins.
var timedtextFormats = []string{"json3", "srv3", "srv2", "srv1"}

// Direct queries the public timedtext endpoint without a caption track URL.
type Direct struct {
	BaseURL string
}

// NewDirect creates the strategy against www.youtube.com.
func NewDirect() *Direct { return &Direct{BaseURL: ytBaseURL} }

func (s *Direct) Name() string  { return NameDirect }
func (s *Direct) Priority() int { return PriorityDirect }

// Extract walks the formats for manual captions, then again with kind=asr.
func (s *Direct) Extract(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	var lastErr error
	for _, asr := range []bool{false, true} {
		for _, format := range timedtextFormats {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			segs, err := fetchCaptions(ctx, s.timedtextURL(videoID, lang, format, asr), nil)
			if err == nil {
				return segs, nil
			}
			lastErr = err
			var apiErr *engine.APIError
			if errors.As(err, &apiErr) && apiErr.Kind == engine.KindRateLimit {
				// Every format hits the same quota.
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("timedtext: %w", lastErr)
}

func (s *Direct) timedtextURL(videoID, lang, format string, asr bool) string {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", lang)
	q.Set("fmt", format)
	if asr {
		q.Set("kind", "asr")
	}
	return s.BaseURL + "/api/timedtext?" + q.Encode()
}
