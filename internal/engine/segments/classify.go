package segments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

const (
	maxTranscriptRunes  = 60000
	maxDescriptionRunes = 1500
	maxExtraRunes       = 3000
)

// Generator is a text completion backend; *engine.ModelChain satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt, modelHint string) (string, error)
}

// Metadata describes the video being classified.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

// Request is the input of Classify. Lyrics and Comments are optional context.
type Request struct {
	Transcript []transcript.Segment
	Metadata   Metadata
	Lyrics     string
	Comments   []string
	ModelHint  string
}

// Classifier labels transcript spans with a generator and fills the gaps.
type Classifier struct {
	gen Generator
}

// NewClassifier creates a Classifier over gen.
func NewClassifier(gen Generator) *Classifier { return &Classifier{gen: gen} }

// Classify returns gap-filled segments tiling the whole transcript.
func (c *Classifier) Classify(ctx context.Context, req Request) ([]ClassifiedSegment, error) {
	if len(req.Transcript) == 0 {
		return nil, transcript.ErrEmptyTranscript
	}
	if c.gen == nil {
		return nil, errors.New("segments: no generator configured")
	}
	req.Transcript = transcript.SortSegments(req.Transcript)

	var raw string
	err := engine.TrackOperation(ctx, "segments_classify", 30*time.Second, func(ctx context.Context) error {
		var err error
		raw, err = c.gen.Generate(ctx, buildPrompt(req), req.ModelHint)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	parsed, err := ParseClassification(raw)
	if err != nil {
		return nil, err
	}
	return FillGaps(parsed, req.Transcript), nil
}

func buildPrompt(req Request) string {
	labels := make([]string, 0, len(Labels))
	for _, l := range Labels {
		if l != LabelContent {
			labels = append(labels, string(l))
		}
	}

	var extra strings.Builder
	if req.Lyrics != "" {
		fmt.Fprintf(&extra, "Lyrics:\n%s\n", engine.TruncateRunes(req.Lyrics, maxExtraRunes, "..."))
	}
	if len(req.Comments) > 0 {
		extra.WriteString("Top comments:\n")
		for _, c := range req.Comments {
			fmt.Fprintf(&extra, "- %s\n", engine.TruncateRunes(c, 300, "..."))
		}
	}

	text := transcript.Format(req.Transcript, transcript.FormatTimestamped)
	hints := Hints(transcript.Text(req.Transcript))
	if hints == "" {
		hints = "none"
	}
	return fmt.Sprintf(classifyPrompt,
		strings.Join(labels, ", "),
		req.Metadata.Title,
		req.Metadata.Author,
		engine.TruncateRunes(req.Metadata.Description, maxDescriptionRunes, "..."),
		engine.TruncateRunes(extra.String(), maxExtraRunes*2, "..."),
		hints,
		engine.TruncateRunes(text, maxTranscriptRunes, "\n..."),
	)
}

// seconds accepts 12.5, "12.5", "1:05" and "1:02:03".
type seconds float64

func (s *seconds) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*s = seconds(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("seconds: %s", b)
	}
	v, ok := parseSeconds(str)
	if !ok {
		return fmt.Errorf("seconds: %q", str)
	}
	*s = seconds(v)
	return nil
}

func parseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f < 0 {
			return 0, false
		}
		total = total*60 + f
	}
	return total, true
}

type rawSegment struct {
	Start       seconds  `json:"start"`
	End         *seconds `json:"end"`
	Label       string   `json:"label"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// ParseClassification decodes the generator's JSON array. Unknown labels and
// inverted intervals are dropped; highlights collapse to a single moment.
func ParseClassification(raw string) ([]ClassifiedSegment, error) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	if i, j := strings.IndexByte(body, '['), strings.LastIndexByte(body, ']'); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var items []rawSegment
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, fmt.Errorf("classification parse: %w (raw: %s)", err, engine.TruncateRunes(raw, 200, "..."))
	}

	out := make([]ClassifiedSegment, 0, len(items))
	for _, it := range items {
		name := it.Label
		if name == "" {
			name = it.Category
		}
		label, ok := NormalizeLabel(name)
		if !ok {
			slog.Debug("segments: unknown label dropped", slog.String("label", name))
			continue
		}
		seg := ClassifiedSegment{
			Start:       float64(it.Start),
			Label:       label,
			Title:       strings.TrimSpace(it.Title),
			Description: strings.TrimSpace(it.Description),
		}
		if seg.Start < 0 {
			continue
		}
		switch {
		case label == LabelHighlight:
			seg.End = seg.Start
		case it.End == nil || float64(*it.End) < seg.Start:
			continue
		default:
			seg.End = float64(*it.End)
		}
		out = append(out, seg)
	}
	return out, nil
}
