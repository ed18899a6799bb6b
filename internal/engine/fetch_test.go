package engine

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchBytes(t *testing.T) {
	Init(Config{HTTPClient: NewFetchClient(5 * time.Second)})

	t.Run("ok with content type", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "text/vtt" {
				t.Errorf("custom header not sent, got %q", r.Header.Get("Accept"))
			}
			w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
			_, _ = w.Write([]byte("WEBVTT\n"))
		}))
		defer srv.Close()

		got, err := FetchBytes(context.Background(), srv.URL, map[string]string{"Accept": "text/vtt"})
		if err != nil {
			t.Fatalf("FetchBytes: %v", err)
		}
		if string(got.Body) != "WEBVTT\n" || got.ContentType != "text/vtt; charset=utf-8" {
			t.Errorf("got body=%q type=%q", got.Body, got.ContentType)
		}
	})

	t.Run("gzip body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			_, _ = gz.Write([]byte(`{"events":[]}`))
			_ = gz.Close()
		}))
		defer srv.Close()

		got, err := FetchBytes(context.Background(), srv.URL, nil)
		if err != nil {
			t.Fatalf("FetchBytes: %v", err)
		}
		if string(got.Body) != `{"events":[]}` {
			t.Errorf("body = %q", got.Body)
		}
	})

	t.Run("permanent status not retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := FetchBytes(context.Background(), srv.URL, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Kind != KindAuth {
			t.Fatalf("expected auth APIError, got %v", err)
		}
		if hits.Load() != 1 {
			t.Errorf("403 should not be retried, got %d hits", hits.Load())
		}
	})

	t.Run("retryable status retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		got, err := FetchBytes(context.Background(), srv.URL, nil)
		if err != nil {
			t.Fatalf("FetchBytes: %v", err)
		}
		if string(got.Body) != "ok" || hits.Load() != 2 {
			t.Errorf("body=%q hits=%d", got.Body, hits.Load())
		}
	})
}

func TestCleanCaption(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"it&amp;#39;s", "it's"},
		{"<font color=\"#fff\">hi</font>  there\n", "hi there"},
		{"a&nbsp;b &quot;c&quot; 3 &lt; 4", `a b "c" 3 < 4`},
		{"&lt;font color=&quot;#E5E5E5&quot;&gt;hello world&lt;/font&gt;", "hello world"},
		{"&amp;lt;i&amp;gt;double&amp;lt;/i&amp;gt;", "double"},
	}
	for _, tt := range tests {
		if got := CleanCaption(tt.in); got != tt.want {
			t.Errorf("CleanCaption(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInitFetchTimeout(t *testing.T) {
	defer Init(Config{})

	Init(Config{FetchTimeout: 7 * time.Second})
	if got := Cfg.HTTPClient.Timeout; got != 7*time.Second {
		t.Errorf("timeout = %v, want 7s from FetchTimeout", got)
	}
	Init(Config{})
	if got := Cfg.HTTPClient.Timeout; got != defaultFetchTimeout {
		t.Errorf("timeout = %v, want default %v", got, defaultFetchTimeout)
	}
	custom := &http.Client{}
	Init(Config{HTTPClient: custom, FetchTimeout: time.Second})
	if Cfg.HTTPClient != custom {
		t.Error("explicit HTTPClient replaced")
	}
}
