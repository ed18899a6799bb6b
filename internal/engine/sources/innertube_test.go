package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const getTranscriptBody = `{"actions":[{"updateEngagementPanelAction":{"content":{"transcriptRenderer":{"content":{"transcriptSearchPanelRenderer":{"body":{"transcriptSegmentListRenderer":{"initialSegments":[
{"transcriptSegmentRenderer":{"startMs":"0","endMs":"2500","snippet":{"runs":[{"text":"Hello "},{"text":"there"}]}}},
{"transcriptSectionHeaderRenderer":{}},
{"transcriptSegmentRenderer":{"startMs":"2500","endMs":"4000","snippet":{"runs":[{"text":"it&#39;s me"}]}}}
]}}}}}}}}]}`

func TestExtractTranscriptToken(t *testing.T) {
	tok, err := extractTranscriptToken([]byte(`{"x":{"getTranscriptEndpoint":{"params":"CgtBQkM%3D"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if tok != "CgtBQkM=" {
		t.Errorf("token = %q", tok)
	}
	if _, err := extractTranscriptToken([]byte(`{}`)); err == nil {
		t.Error("expected error without endpoint")
	}
}

func TestInnertubeEngagementPanel(t *testing.T) {
	var gotParams string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/youtubei/v1/next":
			io.WriteString(w, `{"engagementPanels":[{"getTranscriptEndpoint":{"params":"abc%3D"}}]}`)
		case "/youtubei/v1/get_transcript":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			gotParams, _ = body["params"].(string)
			io.WriteString(w, getTranscriptBody)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := &Innertube{BaseURL: srv.URL}
	segs, err := s.Extract(context.Background(), "dQw4w9WgXcQ", "en")
	if err != nil {
		t.Fatal(err)
	}
	if gotParams != "abc=" {
		t.Errorf("params = %q, want decoded token", gotParams)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Text != "Hello there" || segs[0].Duration != 2.5 {
		t.Errorf("seg 0 = %+v", segs[0])
	}
	if segs[1].Text != "it's me" || segs[1].Start != 2.5 || segs[1].Duration != 1.5 {
		t.Errorf("seg 1 = %+v", segs[1])
	}
}

func TestInnertubePlayerFallback(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/youtubei/v1/next":
			http.Error(w, "forbidden", http.StatusForbidden)
		case "/youtubei/v1/player":
			if r.Header.Get("X-Youtube-Client-Name") != "3" {
				t.Errorf("player request not sent as ANDROID client")
			}
			io.WriteString(w, `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
				{"baseUrl":"`+srv.URL+`/api/timedtext?v=x&exp=xpe","languageCode":"en"},
				{"baseUrl":"`+srv.URL+`/api/timedtext?v=x&lang=en","languageCode":"en","kind":"asr"}]}}}`)
		case "/api/timedtext":
			if r.URL.Query().Get("fmt") != "json3" {
				t.Errorf("fmt = %q, want json3", r.URL.Query().Get("fmt"))
			}
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"events":[{"tStartMs":1000,"dDurationMs":500,"segs":[{"utf8":"from player"}]}]}`)
		}
	}))
	defer srv.Close()

	segs, err := (&Innertube{BaseURL: srv.URL}).Extract(context.Background(), "x", "en")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Text != "from player" {
		t.Errorf("segs = %+v", segs)
	}
}

func TestInnertubeNoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/player") {
			io.WriteString(w, `{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm"}}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := (&Innertube{BaseURL: srv.URL}).Extract(context.Background(), "x", "en")
	if err == nil || !strings.Contains(err.Error(), "Sign in to confirm") {
		t.Errorf("err = %v", err)
	}
}

func TestWithFormat(t *testing.T) {
	got := withFormat("https://www.youtube.com/api/timedtext?v=x&fmt=srv3&lang=en", "json3")
	if !strings.Contains(got, "fmt=json3") || strings.Contains(got, "srv3") {
		t.Errorf("withFormat = %q", got)
	}
}
