package engine

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	maxFetchBytes       = 8 * 1024 * 1024 // caption and page bodies
	defaultFetchTimeout = 15 * time.Second
)

// Fetched is a downloaded body together with its declared content type.
type Fetched struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// NewFetchClient creates an HTTP client with settings for caption and page
// fetching. A non-positive timeout means defaultFetchTimeout.
func NewFetchClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// FetchBytes performs a GET with exponential backoff. Retryable statuses are
// retried; other non-2xx statuses fail at once with a classified *APIError.
func FetchBytes(ctx context.Context, fetchURL string, headers map[string]string) (*Fetched, error) {
	client := Cfg.HTTPClient

	operation := func() (*Fetched, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept-Encoding", "gzip")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ClassifyError(err).Retryable && ctx.Err() == nil {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			apiErr := StatusError(resp.StatusCode, string(snippet))
			if !IsRetryableStatus(resp.StatusCode) {
				return nil, backoff.Permanent(apiErr)
			}
			return nil, apiErr
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return &Fetched{Body: body, ContentType: resp.Header.Get("Content-Type"), StatusCode: resp.StatusCode}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 4 * time.Second

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(20*time.Second))
}

// readResponseBody reads the response body, handling gzip decompression if needed.
// Transport-level decompression already happened when the client set no
// Accept-Encoding itself, so only an explicit gzip header is unwrapped here.
func readResponseBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(io.LimitReader(r, maxFetchBytes))
}
