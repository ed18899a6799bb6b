package transcript

import "testing"

func TestSelectTrack(t *testing.T) {
	enASR := CaptionTrack{LanguageCode: "en", Kind: "asr", BaseURL: "asr"}
	enManual := CaptionTrack{LanguageCode: "en", BaseURL: "manual"}
	fr := CaptionTrack{LanguageCode: "fr", BaseURL: "fr"}
	enGB := CaptionTrack{LanguageCode: "en-GB", BaseURL: "en-gb"}
	de := CaptionTrack{LanguageCode: "de", BaseURL: "de"}

	tests := []struct {
		name   string
		tracks []CaptionTrack
		lang   string
		want   string
	}{
		{"manual beats ASR", []CaptionTrack{enASR, enManual, fr}, "en", "manual"},
		{"ASR when only option in lang", []CaptionTrack{fr, enASR}, "en", "asr"},
		{"exact language", []CaptionTrack{enASR, enManual, fr}, "fr", "fr"},
		{"english prefix fallback", []CaptionTrack{de, enGB}, "ja", "en-gb"},
		{"first track last resort", []CaptionTrack{de, fr}, "ja", "de"},
		{"regional request skips to english", []CaptionTrack{de, fr, enGB}, "fr-CA", "en-gb"},
		{"regional request without english", []CaptionTrack{de, fr}, "fr-CA", "de"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectTrack(tt.tracks, tt.lang)
			if !ok || got.BaseURL != tt.want {
				t.Errorf("SelectTrack = %+v, %v; want %s", got, ok, tt.want)
			}
		})
	}

	if _, ok := SelectTrack(nil, "en"); ok {
		t.Error("no tracks should report false")
	}
}

func TestSegmentHelpers(t *testing.T) {
	segs := []Segment{
		{Start: 10, Duration: 5, Text: "b"},
		{Start: 0, Duration: 10, Text: "a"},
	}
	sorted := SortSegments(segs)
	if sorted[0].Text != "a" || segs[0].Text != "b" {
		t.Errorf("SortSegments must sort a copy: %+v / %+v", sorted, segs)
	}
	if got := TotalDuration(segs); got != 15 {
		t.Errorf("TotalDuration = %v, want 15", got)
	}
	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %v", got)
	}
	if got := Text(sorted); got != "a b" {
		t.Errorf("Text = %q", got)
	}
}

func TestFormat(t *testing.T) {
	segs := []Segment{{Start: 5, Text: "hi"}, {Start: 3725, Text: "later"}}
	if got := Format(segs, FormatTimestamped); got != "[0:05] hi\n[1:02:05] later" {
		t.Errorf("timestamped = %q", got)
	}
	if got := Format(segs, FormatPlain); got != "hi later" {
		t.Errorf("plain = %q", got)
	}
}

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short", "", false},
		{"https://example.com/", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseVideoID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseVideoID(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
