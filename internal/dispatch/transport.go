package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single POST.
const DefaultTimeout = 10 * time.Second

// Transport delivers one JSON body and reports the HTTP status obtained.
// A non-nil error means no response was received.
type Transport interface {
	Post(ctx context.Context, url string, body []byte) (int, error)
}

// HTTPTransport posts over net/http.
type HTTPTransport struct {
	client  *http.Client
	timeout time.Duration
}

// Option customises an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(t *HTTPTransport) {
		if h != nil {
			t.client = h
		}
	}
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied first and never modified.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewHTTPTransport constructs a transport with a DefaultTimeout client.
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.timeout > 0 && t.timeout != t.client.Timeout {
		c := *t.client
		c.Timeout = t.timeout
		t.client = &c
	}
	return t
}

func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// NopTransport answers every post with Status (200 when zero) without any
// network traffic. Used by dry runs.
type NopTransport struct {
	Status int
}

func (n NopTransport) Post(context.Context, string, []byte) (int, error) {
	if n.Status == 0 {
		return http.StatusOK, nil
	}
	return n.Status, nil
}
