package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultPollTimeout is how long GET /bridge/poll holds an idle connection.
	DefaultPollTimeout = 25 * time.Second
	maxBodyBytes       = 8 << 20
)

// Capturer stores caption payloads observed by the page agent.
type Capturer interface {
	Capture(videoID, lang, contentType string, body []byte) int
}

// Server exposes a Channel and a Capturer to the page agent over HTTP.
type Server struct {
	ch          *Channel
	capturer    Capturer
	PollTimeout time.Duration
}

// NewServer creates the HTTP side of the bridge; capturer may be nil.
func NewServer(ch *Channel, capturer Capturer) *Server {
	return &Server{ch: ch, capturer: capturer, PollTimeout: DefaultPollTimeout}
}

// CaptureRequest is the body of POST /bridge/capture.
type CaptureRequest struct {
	VideoID     string `json:"videoId"`
	Lang        string `json:"lang"`
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
}

// Handler returns the bridge routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bridge/poll", s.handlePoll)
	mux.HandleFunc("POST /bridge/respond", s.handleRespond)
	mux.HandleFunc("POST /bridge/capture", s.handleCapture)
	mux.HandleFunc("GET /bridge/health", s.handleHealth)
	return mux
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.PollTimeout)
	defer cancel()
	msg, err := s.ch.Poll(ctx)
	switch {
	case errors.Is(err, ErrClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case err != nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, msg)
	}
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var resp Response
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&resp); err != nil || resp.ID == "" {
		http.Error(w, "invalid response body", http.StatusBadRequest)
		return
	}
	if err := s.ch.Respond(resp); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if s.capturer == nil {
		http.Error(w, "interception disabled", http.StatusNotFound)
		return
	}
	var req CaptureRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.VideoID == "" {
		http.Error(w, "invalid capture body", http.StatusBadRequest)
		return
	}
	n := s.capturer.Capture(req.VideoID, req.Lang, req.ContentType, []byte(req.Body))
	slog.Debug("bridge: capture", slog.String("id", req.VideoID), slog.String("lang", req.Lang), slog.Int("segments", n))
	writeJSON(w, http.StatusOK, map[string]int{"segments": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pending": s.ch.Pending()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("bridge: write response", slog.Any("error", err))
	}
}

// ListenAndServe serves the bridge on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.PollTimeout + 10*time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.ch.Close()
		return srv.Shutdown(shutdownCtx)
	}
}
