package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeCapturer struct {
	videoID, lang, ct, body string
}

func (f *fakeCapturer) Capture(videoID, lang, ct string, body []byte) int {
	f.videoID, f.lang, f.ct, f.body = videoID, lang, ct, string(body)
	return 3
}

func newTestServer(t *testing.T, capturer Capturer) (*Channel, *httptest.Server) {
	t.Helper()
	ch := NewChannel(2 * time.Second)
	s := NewServer(ch, capturer)
	s.PollTimeout = 50 * time.Millisecond
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		ch.Close()
	})
	return ch, srv
}

func TestServerPollRespond(t *testing.T) {
	ch, srv := newTestServer(t, nil)

	result := make(chan json.RawMessage, 1)
	go func() {
		raw, err := ch.Request(context.Background(), KindCurrentVideo, nil)
		if err != nil {
			t.Error(err)
		}
		result <- raw
	}()

	var msg Message
	for deadline := time.Now().Add(time.Second); msg.ID == "" && time.Now().Before(deadline); {
		resp, err := http.Get(srv.URL + "/bridge/poll")
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode == http.StatusOK {
			json.NewDecoder(resp.Body).Decode(&msg)
		}
		resp.Body.Close()
	}
	if msg.Kind != KindCurrentVideo {
		t.Fatalf("polled %+v", msg)
	}

	body, _ := json.Marshal(Response{ID: msg.ID, Result: json.RawMessage(`{"videoId":"abc"}`)})
	resp, err := http.Post(srv.URL+"/bridge/respond", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("respond status = %d", resp.StatusCode)
	}
	if got := <-result; string(got) != `{"videoId":"abc"}` {
		t.Errorf("result = %s", got)
	}

	// A second answer to the same id is rejected.
	resp, _ = http.Post(srv.URL+"/bridge/respond", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("duplicate respond status = %d", resp.StatusCode)
	}
}

func TestServerPollIdle(t *testing.T) {
	_, srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/bridge/poll")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestServerCapture(t *testing.T) {
	fc := &fakeCapturer{}
	_, srv := newTestServer(t, fc)

	body := `{"videoId":"vid","lang":"en","contentType":"application/json","body":"{\"events\":[]}"}`
	resp, err := http.Post(srv.URL+"/bridge/capture", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]int
	json.NewDecoder(resp.Body).Decode(&out)
	if out["segments"] != 3 || fc.videoID != "vid" || fc.body != `{"events":[]}` {
		t.Errorf("out = %v, capture = %+v", out, fc)
	}

	resp2, _ := http.Post(srv.URL+"/bridge/capture", "application/json", bytes.NewBufferString(`{"lang":"en"}`))
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("missing video status = %d", resp2.StatusCode)
	}
}

func TestServerCaptureDisabled(t *testing.T) {
	_, srv := newTestServer(t, nil)
	resp, _ := http.Post(srv.URL+"/bridge/capture", "application/json", bytes.NewBufferString(`{"videoId":"v"}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestServerHealth(t *testing.T) {
	_, srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/bridge/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	if out["status"] != "ok" {
		t.Errorf("health = %v", out)
	}
	r, err := http.Post(srv.URL+"/bridge/health", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST health status = %d", r.StatusCode)
	}
}
