// Package summary condenses a transcript into a markdown summary.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/segments"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

const (
	maxTranscriptRunes  = 60000
	maxDescriptionRunes = 1500
	maxLyricsRunes      = 3000
)

// Summary lengths.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

const defaultLanguage = "English"

// Request is the input of Summarize. Length defaults to medium and Language
// to English; Instructions, when set, replace the task line.
type Request struct {
	Transcript   []transcript.Segment
	Metadata     segments.Metadata
	Lyrics       string
	Length       string
	Language     string
	Instructions string
	ModelHint    string
}

// Summarizer produces summaries with a generator.
type Summarizer struct {
	gen segments.Generator
}

// New creates a Summarizer over gen.
func New(gen segments.Generator) *Summarizer { return &Summarizer{gen: gen} }

// NormalizeLength maps user input to a known length.
func NormalizeLength(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", LengthMedium:
		return LengthMedium, nil
	case LengthShort, "brief":
		return LengthShort, nil
	case LengthLong, "detailed":
		return LengthLong, nil
	}
	return "", fmt.Errorf("unknown summary length %q (use short, medium or long)", s)
}

// Summarize returns the markdown summary of req.Transcript.
func (s *Summarizer) Summarize(ctx context.Context, req Request) (string, error) {
	if len(req.Transcript) == 0 {
		return "", transcript.ErrEmptyTranscript
	}
	if s.gen == nil {
		return "", errors.New("summary: no generator configured")
	}
	length, err := NormalizeLength(req.Length)
	if err != nil {
		return "", err
	}
	req.Length = length
	if strings.TrimSpace(req.Language) == "" {
		req.Language = defaultLanguage
	}
	req.Transcript = transcript.SortSegments(req.Transcript)

	var out string
	err = engine.TrackOperation(ctx, "transcript_summary", 30*time.Second, func(ctx context.Context) error {
		var err error
		out, err = s.gen.Generate(ctx, buildPrompt(req), req.ModelHint)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("summarize: empty completion")
	}
	return out, nil
}

func buildPrompt(req Request) string {
	task := "Create a concise summary of the following video transcript."
	if t := strings.TrimSpace(req.Instructions); t != "" {
		task = t
	}

	var ctxb strings.Builder
	fmt.Fprintf(&ctxb, "Title: %s\n", orUnknown(req.Metadata.Title))
	fmt.Fprintf(&ctxb, "Channel: %s\n", orUnknown(req.Metadata.Author))
	if d := strings.TrimSpace(req.Metadata.Description); d != "" {
		fmt.Fprintf(&ctxb, "Description: %s\n", engine.TruncateRunes(d, maxDescriptionRunes, "..."))
	}
	if req.Lyrics != "" {
		fmt.Fprintf(&ctxb, "Lyrics:\n%s\n", engine.TruncateRunes(req.Lyrics, maxLyricsRunes, "..."))
	}

	text := transcript.Format(req.Transcript, transcript.FormatTimestamped)
	return fmt.Sprintf(summaryPrompt,
		task,
		ctxb.String(),
		lengthGuide[req.Length],
		req.Language,
		engine.TruncateRunes(text, maxTranscriptRunes, "\n..."),
	)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
