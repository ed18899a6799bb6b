package segments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

type fakeGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

func TestParseClassification(t *testing.T) {
	raw := "```json\n" + `[
		{"start": 10, "end": 20, "label": "Sponsor", "title": "Ad read"},
		{"start": "1:05", "end": "1:30", "label": "self-promotion"},
		{"start": 42, "label": "Highlight", "description": "the big reveal"},
		{"start": 50, "end": 40, "label": "filler"},
		{"start": 60, "end": 70, "label": "advertisement"},
		{"start": 80, "end": 90, "category": "outro"}
	]` + "\n```"
	got, err := ParseClassification(raw)
	if err != nil {
		t.Fatal(err)
	}
	want := []ClassifiedSegment{
		{Start: 10, End: 20, Label: LabelSponsor, Title: "Ad read"},
		{Start: 65, End: 90, Label: LabelSelfPromo},
		{Start: 42, End: 42, Label: LabelHighlight, Description: "the big reveal"},
		{Start: 80, End: 90, Label: LabelOutro},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("seg %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseClassificationGarbage(t *testing.T) {
	if _, err := ParseClassification("I could not find any segments."); err == nil {
		t.Error("expected parse error")
	}
	got, err := ParseClassification("Here you go: [] hope that helps")
	if err != nil || len(got) != 0 {
		t.Errorf("got %+v, %v", got, err)
	}
}

func TestClassify(t *testing.T) {
	tr := []transcript.Segment{
		{Start: 0, Duration: 10, Text: "Hey guys, welcome back"},
		{Start: 10, Duration: 10, Text: "this video is sponsored by Acme"},
		{Start: 20, Duration: 100, Text: "now the real topic"},
	}
	gen := &fakeGenerator{out: `[{"start":10,"end":20,"label":"sponsor"}]`}
	got, err := NewClassifier(gen).Classify(context.Background(), Request{
		Transcript: tr,
		Metadata:   Metadata{Title: "Video", Author: "Chan"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[1].Label != LabelSponsor || got[2].End != 120 {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(gen.prompt, "[SPONSOR] Detected") || !strings.Contains(gen.prompt, "[0:10] this video is sponsored by Acme") {
		t.Errorf("prompt missing hints or transcript:\n%s", gen.prompt)
	}
	if strings.Contains(gen.prompt, "Allowed labels: sponsor, selfpromo") == false {
		t.Errorf("prompt missing label list")
	}
}

func TestClassifySortsTranscript(t *testing.T) {
	tr := []transcript.Segment{
		{Start: 60, Duration: 60, Text: "closing words"},
		{Start: 0, Duration: 10, Text: "opening words"},
	}
	gen := &fakeGenerator{out: `[]`}
	got, err := NewClassifier(gen).Classify(context.Background(), Request{Transcript: tr})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].End != 120 {
		t.Errorf("got %+v, want one content segment to 120", got)
	}
	if strings.Index(gen.prompt, "[0:00] opening words") > strings.Index(gen.prompt, "[1:00] closing words") {
		t.Errorf("prompt transcript not in start order:\n%s", gen.prompt)
	}
	if tr[0].Start != 60 {
		t.Error("caller's transcript reordered")
	}
}

func TestClassifyErrors(t *testing.T) {
	_, err := NewClassifier(&fakeGenerator{}).Classify(context.Background(), Request{})
	if !errors.Is(err, transcript.ErrEmptyTranscript) {
		t.Errorf("empty transcript err = %v", err)
	}

	boom := errors.New("quota")
	tr := []transcript.Segment{{Start: 0, Duration: 5, Text: "x"}}
	_, err = NewClassifier(&fakeGenerator{err: boom}).Classify(context.Background(), Request{Transcript: tr})
	if !errors.Is(err, boom) {
		t.Errorf("generator err = %v", err)
	}
}
