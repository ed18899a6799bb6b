package sources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// Transcript panel selectors of the watch page.
const (
	selTranscriptPanel   = `ytd-engagement-panel-section-list-renderer[target-id="engagement-panel-searchable-transcript"]`
	selDescriptionExpand = "#expand"
	selSegmentRenderer   = "ytd-transcript-segment-renderer"
	showTranscriptText   = "Show transcript"
	lastSegmentDuration  = 5.0
)

var showTranscriptSelectors = []string{
	`button[aria-label="Show transcript"]`,
	`ytd-button-renderer[aria-label="Show transcript"]`,
	`#primary-button button[aria-label="Show transcript"]`,
}

// TranscriptItem is one rendered row of the transcript panel.
type TranscriptItem struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Page is the rendered watch page as seen by the page agent.
type Page interface {
	// CurrentVideo returns the id of the video the page shows.
	CurrentVideo(ctx context.Context) (string, error)
	// Exists reports whether selector matches a visible element.
	Exists(ctx context.Context, selector string) (bool, error)
	// Click clicks the first visible match; false when nothing matched.
	Click(ctx context.Context, selector string) (bool, error)
	// ClickByText clicks the first match of selector whose text contains text.
	ClickByText(ctx context.Context, selector, text string) (bool, error)
	// TranscriptItems returns the rendered transcript rows in page order.
	TranscriptItems(ctx context.Context) ([]TranscriptItem, error)
}

// DOM opens the transcript panel of the live page and scrapes its rows.
type DOM struct {
	page Page

	ExpandSettle time.Duration
	OpenSettle   time.Duration
	PollTimeout  time.Duration
	PollInterval time.Duration
}

// NewDOM creates the strategy over page with the page's usual timings.
func NewDOM(page Page) *DOM {
	return &DOM{
		page:         page,
		ExpandSettle: 500 * time.Millisecond,
		OpenSettle:   time.Second,
		PollTimeout:  5 * time.Second,
		PollInterval: 500 * time.Millisecond,
	}
}

func (s *DOM) Name() string  { return NameDOM }
func (s *DOM) Priority() int { return PriorityDOM }

// Extract ignores lang: the panel shows whatever track the player selected.
func (s *DOM) Extract(ctx context.Context, videoID, _ string) ([]transcript.Segment, error) {
	current, err := s.page.CurrentVideo(ctx)
	if err != nil {
		return nil, fmt.Errorf("page agent: %w", err)
	}
	if current != videoID {
		return nil, fmt.Errorf("page shows %q, not %q", current, videoID)
	}

	visible, err := s.page.Exists(ctx, selTranscriptPanel)
	if err != nil {
		return nil, err
	}
	if !visible {
		if err := s.openPanel(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.waitSegments(ctx); err != nil {
		return nil, err
	}
	items, err := s.page.TranscriptItems(ctx)
	if err != nil {
		return nil, err
	}
	segs := ItemsToSegments(items)
	if len(segs) == 0 {
		return nil, errors.New("no segments found")
	}
	return segs, nil
}

func (s *DOM) openPanel(ctx context.Context) error {
	if ok, err := s.page.Click(ctx, selDescriptionExpand); err != nil {
		return err
	} else if ok {
		if err := sleep(ctx, s.ExpandSettle); err != nil {
			return err
		}
	}

	clicked := false
	for _, sel := range showTranscriptSelectors {
		ok, err := s.page.Click(ctx, sel)
		if err != nil {
			return err
		}
		if ok {
			clicked = true
			break
		}
	}
	if !clicked {
		ok, err := s.page.ClickByText(ctx, "button, ytd-button-renderer", showTranscriptText)
		if err != nil {
			return err
		}
		clicked = ok
	}
	if !clicked {
		return errors.New("show transcript button not found")
	}
	return sleep(ctx, s.OpenSettle)
}

func (s *DOM) waitSegments(ctx context.Context) error {
	deadline := time.Now().Add(s.PollTimeout)
	for {
		ok, err := s.page.Exists(ctx, selSegmentRenderer)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return errors.New("timeout waiting for segments")
		}
		if err := sleep(ctx, s.PollInterval); err != nil {
			return err
		}
	}
}

// ItemsToSegments converts panel rows: each duration runs to the next row's
// start, the last row gets a fixed duration.
func ItemsToSegments(items []TranscriptItem) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(items))
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		start, _ := ParseClock(it.Timestamp)
		out = append(out, transcript.Segment{Start: start, Text: text})
	}
	for i := range out {
		if i < len(out)-1 {
			out[i].Duration = max(out[i+1].Start-out[i].Start, 0)
		} else {
			out[i].Duration = lastSegmentDuration
		}
	}
	return out
}

// ParseClock parses "H:MM:SS" or "MM:SS" into seconds.
func ParseClock(s string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + float64(v)
	}
	return total, true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
