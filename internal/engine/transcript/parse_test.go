package transcript

import (
	"encoding/json"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseJSON3(t *testing.T) {
	events := []struct {
		start, dur float64
		text       string
	}{
		{0, 1500, "first"},
		{1500, 2250, "second\nline"},
		{3750, 1000, "   "},
		{4750, 900, "third"},
	}
	type seg struct {
		Utf8 string `json:"utf8"`
	}
	type event struct {
		TStartMs    float64 `json:"tStartMs"`
		DDurationMs float64 `json:"dDurationMs"`
		Segs        []seg   `json:"segs,omitempty"`
	}
	raw := struct {
		Events []event `json:"events"`
	}{}
	raw.Events = append(raw.Events, event{TStartMs: 0, DDurationMs: 100000}) // marker, no segs
	for _, e := range events {
		raw.Events = append(raw.Events, event{TStartMs: e.start, DDurationMs: e.dur, Segs: []seg{{Utf8: e.text}}})
	}
	body, _ := json.Marshal(raw)

	got := ParseJSON3(body)
	if len(got) != 3 {
		t.Fatalf("got %d segments, want 3 (marker and blank dropped): %+v", len(got), got)
	}
	want := []Segment{
		{Start: 0, Duration: 1.5, Text: "first"},
		{Start: 1.5, Duration: 2.25, Text: "second line"},
		{Start: 4.75, Duration: 0.9, Text: "third"},
	}
	for i, w := range want {
		if !almostEqual(got[i].Start, w.Start) || !almostEqual(got[i].Duration, w.Duration) || got[i].Text != w.Text {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestParseJSON3MultipleSegs(t *testing.T) {
	body := []byte(`{"events":[{"tStartMs":1000,"dDurationMs":2000,"segs":[{"utf8":"Hello"},{"utf8":" world"}]}]}`)
	got := ParseJSON3(body)
	if len(got) != 1 || got[0].Text != "Hello world" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON3Invalid(t *testing.T) {
	if got := ParseJSON3([]byte("<xml/>")); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestParseVTT(t *testing.T) {
	t.Run("single cue", func(t *testing.T) {
		got := ParseVTT([]byte("WEBVTT\n\n00:00:01.000 --> 00:00:03.500\nHello world\n"))
		if len(got) != 1 {
			t.Fatalf("got %d segments", len(got))
		}
		want := Segment{Start: 1.0, Duration: 2.5, Text: "Hello world"}
		if !almostEqual(got[0].Start, want.Start) || !almostEqual(got[0].Duration, want.Duration) || got[0].Text != want.Text {
			t.Errorf("got %+v, want %+v", got[0], want)
		}
	})

	t.Run("bare cue without header", func(t *testing.T) {
		got := ParseVTT([]byte("00:00:01.000 --> 00:00:03.500\nHello world"))
		if len(got) != 1 || got[0].Text != "Hello world" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("multi-line cues, markup and settings", func(t *testing.T) {
		doc := "WEBVTT\nKind: captions\n\nNOTE a comment\n\n1\n01:02.000 --> 01:04.000 align:start position:0%\n<c.colorE5E5E5>first</c>\nline &amp; more\n\n" +
			"1:00:00.000 --> 1:00:01.250\nlate\n00:00:05.000 --> 00:00:06.000\nback to back\n"
		got := ParseVTT([]byte(doc))
		if len(got) != 3 {
			t.Fatalf("got %d segments: %+v", len(got), got)
		}
		if got[0].Text != "first line & more" || !almostEqual(got[0].Start, 62) || !almostEqual(got[0].Duration, 2) {
			t.Errorf("cue 0 = %+v", got[0])
		}
		if !almostEqual(got[1].Start, 3600) || !almostEqual(got[1].Duration, 1.25) {
			t.Errorf("cue 1 = %+v", got[1])
		}
		if got[2].Text != "back to back" {
			t.Errorf("cue 2 = %+v", got[2])
		}
	})

	t.Run("empty cue dropped", func(t *testing.T) {
		got := ParseVTT([]byte("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n\n00:00:02.000 --> 00:00:03.000\nok\n"))
		if len(got) != 1 || got[0].Text != "ok" {
			t.Errorf("got %+v", got)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"00:00:01.000", 1, true},
		{"01:02.500", 62.5, true},
		{"1:00:00.000", 3600, true},
		{"00:00:01,250", 1.25, true},
		{"12.5s", 12.5, true},
		{"1500ms", 1.5, true},
		{"", 0, false},
		{"a:b", 0, false},
		{"1:2:3:4", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if ok != tt.ok || (ok && !almostEqual(got, tt.want)) {
			t.Errorf("ParseTimestamp(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseTTML(t *testing.T) {
	doc := `<?xml version="1.0"?><tt xmlns="http://www.w3.org/ns/ttml"><body><div>
<p begin="00:00:01.000" end="00:00:02.500">Hello<br/>there</p>
<p begin="2.5s" dur="1s"><span style="s1">tagged</span></p>
<p end="00:00:09.000">no begin</p>
</div></body></tt>`
	got := ParseTTML([]byte(doc))
	if len(got) != 2 {
		t.Fatalf("got %d segments: %+v", len(got), got)
	}
	if got[0].Text != "Hello there" || !almostEqual(got[0].Duration, 1.5) {
		t.Errorf("p0 = %+v", got[0])
	}
	if got[1].Text != "tagged" || !almostEqual(got[1].Start, 2.5) || !almostEqual(got[1].Duration, 1) {
		t.Errorf("p1 = %+v", got[1])
	}
}

func TestParseXML(t *testing.T) {
	t.Run("srv1", func(t *testing.T) {
		doc := `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
			`<text start="0.5" dur="1.2">it&amp;#39;s fine</text>` +
			`<text start="1.7">no dur</text>` +
			`<text start="3" dur="1"></text></transcript>`
		got := ParseXML([]byte(doc))
		if len(got) != 2 {
			t.Fatalf("got %d segments: %+v", len(got), got)
		}
		if got[0].Text != "it's fine" {
			t.Errorf("double-escaped entity not decoded: %q", got[0].Text)
		}
		if got[1].Duration != 0 {
			t.Errorf("missing dur should be 0, got %v", got[1].Duration)
		}
	})

	t.Run("escaped markup", func(t *testing.T) {
		doc := `<transcript><text start="1.2" dur="2.1">&lt;font color=&quot;#E5E5E5&quot;&gt;hello world&lt;/font&gt;</text></transcript>`
		got := ParseXML([]byte(doc))
		if len(got) != 1 || got[0].Text != "hello world" {
			t.Fatalf("got %+v, want one segment %q", got, "hello world")
		}
	})

	t.Run("srv3", func(t *testing.T) {
		doc := `<timedtext format="3"><body><p t="1000" d="2000"><s>Hello</s><s t="500"> world</s></p></body></timedtext>`
		got := ParseXML([]byte(doc))
		if len(got) != 1 || got[0].Text != "Hello world" || !almostEqual(got[0].Start, 1) || !almostEqual(got[0].Duration, 2) {
			t.Fatalf("got %+v", got)
		}
	})
}

func TestParseDispatch(t *testing.T) {
	json3 := []byte(`{"events":[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"a"}]}]}`)
	vtt := []byte("WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nb\n")
	xml := []byte(`<transcript><text start="0" dur="1">c</text></transcript>`)

	tests := []struct {
		name, ct string
		body     []byte
		want     string
	}{
		{"json by content type", "application/json; charset=utf-8", json3, "a"},
		{"vtt by content type", "text/vtt", vtt, "b"},
		{"xml by fmt name", "srv1", xml, "c"},
		{"sniffed despite wrong type", "text/html", vtt, "b"},
		{"mislabelled json", "text/xml", json3, "a"},
		{"no type", "", xml, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.ct, tt.body)
			if len(got) != 1 || got[0].Text != tt.want {
				t.Errorf("Parse = %+v, want text %q", got, tt.want)
			}
		})
	}

	if got := Parse("text/html", []byte("<html>nothing</html>")); got != nil {
		t.Errorf("unrecognized input should yield nil, got %+v", got)
	}
}

func TestSniff(t *testing.T) {
	tests := map[string]string{
		`  {"events":[]}`:                  KindJSON3,
		"WEBVTT\n":                         KindVTT,
		`<tt xmlns="x">`:                   KindTTML,
		`<?xml version="1.0"?><transcript>`: KindXML,
		`<timedtext format="3">`:           KindXML,
		"garbage":                          "",
	}
	for in, want := range tests {
		if got := Sniff([]byte(in)); got != want {
			t.Errorf("Sniff(%q) = %q, want %q", in, got, want)
		}
	}
}
