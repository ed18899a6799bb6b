package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

// Request kinds understood by the page agent.
const (
	KindCurrentVideo    = "current_video"
	KindExists          = "exists"
	KindClick           = "click"
	KindClickText       = "click_text"
	KindTranscriptItems = "transcript_items"
)

// PageDriver implements sources.Page over a Channel.
type PageDriver struct {
	ch *Channel
}

var _ sources.Page = (*PageDriver)(nil)

// NewPageDriver creates a driver over ch.
func NewPageDriver(ch *Channel) *PageDriver { return &PageDriver{ch: ch} }

type selectorPayload struct {
	Selector string `json:"selector"`
	Text     string `json:"text,omitempty"`
}

func call[T any](ctx context.Context, ch *Channel, kind string, payload any) (T, error) {
	var out T
	raw, err := ch.Request(ctx, kind, payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("bridge: decode %s result: %w", kind, err)
	}
	return out, nil
}

func (p *PageDriver) CurrentVideo(ctx context.Context) (string, error) {
	r, err := call[struct {
		VideoID string `json:"videoId"`
	}](ctx, p.ch, KindCurrentVideo, nil)
	return r.VideoID, err
}

func (p *PageDriver) Exists(ctx context.Context, selector string) (bool, error) {
	r, err := call[struct {
		Found bool `json:"found"`
	}](ctx, p.ch, KindExists, selectorPayload{Selector: selector})
	return r.Found, err
}

func (p *PageDriver) Click(ctx context.Context, selector string) (bool, error) {
	r, err := call[struct {
		Clicked bool `json:"clicked"`
	}](ctx, p.ch, KindClick, selectorPayload{Selector: selector})
	return r.Clicked, err
}

func (p *PageDriver) ClickByText(ctx context.Context, selector, text string) (bool, error) {
	r, err := call[struct {
		Clicked bool `json:"clicked"`
	}](ctx, p.ch, KindClickText, selectorPayload{Selector: selector, Text: text})
	return r.Clicked, err
}

func (p *PageDriver) TranscriptItems(ctx context.Context) ([]sources.TranscriptItem, error) {
	return call[[]sources.TranscriptItem](ctx, p.ch, KindTranscriptItems, nil)
}
