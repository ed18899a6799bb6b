package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleVTT = "WEBVTT\n\n00:00:01.000 --> 00:00:02.500\nHello world\n\n00:00:02.500 --> 00:00:04.000\nsecond line\n"

func testMirrorList(invidious, piped []string) *MirrorList {
	return &MirrorList{Invidious: invidious, Piped: piped, RequestsPerSecond: 100}
}

func TestMirrorInvidious(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/videos/vid":
			io.WriteString(w, `{"title":"T","captions":[
				{"label":"Deutsch","language_code":"de","url":"/api/v1/captions/vid?label=Deutsch"},
				{"label":"English (auto-generated)","language_code":"en","url":"/api/v1/captions/vid?label=English+%28auto-generated%29"}]}`)
		case "/api/v1/captions/vid":
			if r.URL.Query().Get("label") != "English (auto-generated)" {
				t.Errorf("label = %q", r.URL.Query().Get("label"))
			}
			w.Header().Set("Content-Type", "text/vtt")
			io.WriteString(w, sampleVTT)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	segs, err := NewMirror(testMirrorList([]string{srv.URL}, nil)).Extract(context.Background(), "vid", "en")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || segs[0].Text != "Hello world" || segs[0].Start != 1 || segs[0].Duration != 1.5 {
		t.Errorf("segs = %+v", segs)
	}
}

func TestMirrorFallsBackToPiped(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	defer dead.Close()

	var piped *httptest.Server
	piped = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/streams/vid":
			io.WriteString(w, `{"title":"T","subtitles":[{"url":"`+piped.URL+`/sub.vtt","mimeType":"text/vtt","code":"en","name":"English"}]}`)
		case "/sub.vtt":
			io.WriteString(w, sampleVTT)
		default:
			http.NotFound(w, r)
		}
	}))
	defer piped.Close()

	m := NewMirror(testMirrorList([]string{dead.URL}, []string{piped.URL}))
	segs, err := m.Extract(context.Background(), "vid", "en")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Errorf("segs = %+v", segs)
	}
}

func TestMirrorAllFail(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	defer dead.Close()

	_, err := NewMirror(testMirrorList([]string{dead.URL}, []string{dead.URL})).Extract(context.Background(), "vid", "en")
	if err == nil || !strings.Contains(err.Error(), "all mirror instances failed") {
		t.Errorf("err = %v", err)
	}
	_, err = NewMirror(testMirrorList(nil, nil)).Extract(context.Background(), "vid", "en")
	if err == nil || !strings.Contains(err.Error(), "no mirror instances configured") {
		t.Errorf("err = %v", err)
	}
}

func TestMirrorMetadataMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"title":"Talk","author":"Chan","viewCount":42,"lengthSeconds":600,"genre":"Education",
			"description":"plain","descriptionHtml":"Intro with <b>bold</b> and <a href=\"https://example.com\">a link</a>"}`)
	}))
	defer srv.Close()

	md, err := NewMirror(testMirrorList([]string{srv.URL}, nil)).Metadata(context.Background(), "vid")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.Description, "**bold**") || !strings.Contains(md.Description, "[a link](https://example.com)") {
		t.Errorf("description = %q", md.Description)
	}
	if md.Category != "Education" || md.ViewCount != 42 || md.Source != srv.URL {
		t.Errorf("metadata = %+v", md)
	}
}

func TestParsePipedWiki(t *testing.T) {
	page := `| Instance API URL | Instance Locations | CDN? |
| --- | --- | --- |
| [pipedapi.kavin.rocks](https://pipedapi.kavin.rocks/) | Official | Yes |
| [piped.video](https://piped.video) | Frontend | No |
| [api-piped.mha.fi](https://api-piped.mha.fi) | Finland | No |`

	got := parsePipedWiki(page)
	want := []string{"https://pipedapi.kavin.rocks", "https://api-piped.mha.fi"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPipedDiscovery(t *testing.T) {
	wiki := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "| [pipedapi.example](https://pipedapi.example.org) | X |\n")
	}))
	defer wiki.Close()

	m := NewMirror(&MirrorList{Piped: []string{"https://static"}, DiscoverPiped: true, PipedWiki: wiki.URL, RequestsPerSecond: 1})
	got := m.pipedInstances(context.Background())
	if len(got) != 1 || got[0] != "https://pipedapi.example.org" {
		t.Errorf("discovered = %v", got)
	}

	wiki.Close()
	if got := m.pipedInstances(context.Background()); got[0] != "https://pipedapi.example.org" {
		t.Errorf("discovery result not reused: %v", got)
	}
}

func TestLoadMirrors(t *testing.T) {
	ml, err := LoadMirrors("")
	if err != nil {
		t.Fatal(err)
	}
	if len(ml.Invidious) == 0 || len(ml.Piped) == 0 || ml.RequestsPerSecond <= 0 {
		t.Errorf("built-in list = %+v", ml)
	}
	if _, err := LoadMirrors("/nonexistent/mirrors.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAbsoluteURL(t *testing.T) {
	if got := absoluteURL("https://inv.example/", "/api/v1/captions/x"); got != "https://inv.example/api/v1/captions/x" {
		t.Errorf("relative: %q", got)
	}
	if got := absoluteURL("https://inv.example", "https://cdn.example/a.vtt"); got != "https://cdn.example/a.vtt" {
		t.Errorf("absolute: %q", got)
	}
}
