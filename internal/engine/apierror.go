package engine

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// ErrorKind is the classification bucket of an upstream failure.
type ErrorKind string

const (
	KindAuth        ErrorKind = "AUTH_ERROR"
	KindRateLimit   ErrorKind = "RATE_LIMIT"
	KindBadRequest  ErrorKind = "BAD_REQUEST"
	KindServer      ErrorKind = "SERVER_ERROR"
	KindTimeout     ErrorKind = "TIMEOUT"
	KindNetwork     ErrorKind = "NETWORK_ERROR"
	KindCertificate ErrorKind = "CERTIFICATE_ERROR"
	KindUnknown     ErrorKind = "UNKNOWN_ERROR"
)

// APIError is a classified upstream failure.
type APIError struct {
	Kind      ErrorKind
	Status    int
	Retryable bool
	Err       error
}

func (e *APIError) Error() string {
	if e.Err == nil {
		if e.Status != 0 {
			return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
		}
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *APIError) Unwrap() error { return e.Err }

// UserMessage is the advice shown to a caller: retryable kinds suggest trying
// again, the rest point at configuration.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case KindAuth:
		return "API key is invalid or expired. Please check your settings."
	case KindRateLimit:
		return "Rate limit exceeded. Please wait a moment and try again."
	case KindBadRequest:
		return "Invalid request. The content may be too large or contain unsupported characters."
	case KindServer:
		return "Service temporarily unavailable. Please try again in a moment."
	case KindTimeout:
		return "Request timed out. The video may be too long or the service is slow."
	case KindNetwork:
		return "Network error. Please check your internet connection."
	case KindCertificate:
		return "Security certificate error. Some external resources may be blocked."
	}
	return "An error occurred: " + e.Error()
}

// StatusError builds a classified error for a non-2xx HTTP response.
func StatusError(code int, body string) *APIError {
	e := ClassifyStatus(code)
	msg := fmt.Sprintf("HTTP %d", code)
	if body = strings.TrimSpace(body); body != "" {
		msg += ": " + TruncateRunes(body, 200, "...")
	}
	e.Err = errors.New(msg)
	return e
}

// ClassifyStatus maps an HTTP status code onto the fixed classification table.
func ClassifyStatus(code int) *APIError {
	e := &APIError{Status: code}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Kind = KindAuth
	case code == http.StatusTooManyRequests:
		e.Kind, e.Retryable = KindRateLimit, true
	case code == http.StatusBadRequest:
		e.Kind = KindBadRequest
	case code >= 500 && code < 600:
		e.Kind, e.Retryable = KindServer, true
	default:
		e.Kind = KindUnknown
	}
	return e
}

// statusInMessageRe finds an HTTP status inside an opaque client error message.
var statusInMessageRe = regexp.MustCompile(`(?i)(?:status|http)[ :=]*(\d{3})\b`)

// ClassifyError classifies any error. Already classified errors are returned as is.
func ClassifyError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Retryable: true, Err: err}
	}

	var certErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return &APIError{Kind: KindCertificate, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Retryable: true, Err: err}
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &APIError{Kind: KindNetwork, Retryable: true, Err: err}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "certificate") || strings.Contains(msg, "SSL") || strings.Contains(msg, "x509"):
		return &APIError{Kind: KindCertificate, Err: err}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return &APIError{Kind: KindTimeout, Retryable: true, Err: err}
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") || strings.Contains(lower, "no such host"):
		return &APIError{Kind: KindNetwork, Retryable: true, Err: err}
	}

	if m := statusInMessageRe.FindStringSubmatch(msg); len(m) == 2 {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil && code >= 400 {
			e := ClassifyStatus(code)
			e.Err = err
			return e
		}
	}
	return &APIError{Kind: KindUnknown, Err: err}
}
