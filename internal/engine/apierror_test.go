package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code      int
		kind      ErrorKind
		retryable bool
	}{
		{401, KindAuth, false},
		{403, KindAuth, false},
		{429, KindRateLimit, true},
		{400, KindBadRequest, false},
		{500, KindServer, true},
		{503, KindServer, true},
		{404, KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			got := ClassifyStatus(tt.code)
			if got.Kind != tt.kind || got.Retryable != tt.retryable {
				t.Errorf("ClassifyStatus(%d) = %s/%v, want %s/%v", tt.code, got.Kind, got.Retryable, tt.kind, tt.retryable)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      ErrorKind
		retryable bool
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout, true},
		{"dns timeout", &net.DNSError{IsTimeout: true}, KindTimeout, true},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindNetwork, true},
		{"certificate text", errors.New("tls: failed to verify certificate"), KindCertificate, false},
		{"status in message", errors.New("llm: status 429: quota"), KindRateLimit, true},
		{"auth in message", errors.New("chat completion: HTTP 401 unauthorized"), KindAuth, false},
		{"wrapped api error", fmt.Errorf("model x: %w", ClassifyStatus(502)), KindServer, true},
		{"other", errors.New("boom"), KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Kind != tt.kind || got.Retryable != tt.retryable {
				t.Errorf("ClassifyError(%v) = %s/%v, want %s/%v", tt.err, got.Kind, got.Retryable, tt.kind, tt.retryable)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if msg := ClassifyStatus(401).UserMessage(); !strings.Contains(msg, "settings") {
		t.Errorf("auth message should point at settings, got %q", msg)
	}
	if msg := ClassifyStatus(503).UserMessage(); !strings.Contains(msg, "try again") {
		t.Errorf("server message should suggest retry, got %q", msg)
	}
	if msg := ClassifyError(errors.New("boom")).UserMessage(); !strings.Contains(msg, "boom") {
		t.Errorf("unknown message should carry the cause, got %q", msg)
	}
}

func TestStatusErrorBody(t *testing.T) {
	e := StatusError(500, "  upstream exploded  ")
	if e.Error() != "HTTP 500: upstream exploded" {
		t.Errorf("Error() = %q", e.Error())
	}
	if !e.Retryable {
		t.Error("500 should be retryable")
	}
}
