package segments

import (
	"math"
	"sort"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// mainContentText is the text of synthesized content segments.
const mainContentText = "Main Content"

// ClassifiedSegment is one labelled interval of the video.
type ClassifiedSegment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Label       Label   `json:"label"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Text        string  `json:"text"`
}

// FillGaps sorts classified by start and inserts content segments wherever
// more than one second of the timeline is unclassified, up to the end of the
// transcript in start order. Input segments are never dropped or merged, so
// overlapping input stays overlapping. An empty transcript yields nil.
func FillGaps(classified []ClassifiedSegment, tr []transcript.Segment) []ClassifiedSegment {
	if len(tr) == 0 {
		return nil
	}
	total := transcript.TotalDuration(tr)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}

	sorted := make([]ClassifiedSegment, len(classified))
	copy(sorted, classified)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]ClassifiedSegment, 0, 2*len(sorted)+1)
	t := 0.0
	for _, s := range sorted {
		if s.Start > t+1 {
			out = append(out, contentSegment(t, s.Start))
		}
		if s.Text == "" {
			s.Text = s.Description
			if s.Text == "" {
				s.Text = s.Label.DisplayName()
			}
		}
		out = append(out, s)
		t = max(t, s.End)
	}
	if t < total-1 {
		out = append(out, contentSegment(t, total))
	}
	return out
}

func contentSegment(start, end float64) ClassifiedSegment {
	return ClassifiedSegment{Start: start, End: end, Label: LabelContent, Text: mainContentText}
}
