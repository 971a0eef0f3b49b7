package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Result is the raw outcome of a POST that reached the server.
type Result struct {
	Status int
	Body   []byte
}

// HTTPTransport posts request bodies over net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport. timeout bounds each request,
// including reading the body; zero means no client-level timeout and leaves
// the deadline to the request context.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{client: &http.Client{Timeout: timeout}}
}

// Post sends body to url. A returned error means the exchange failed before
// a status was available; non-200 statuses are returned as a Result. Errors
// never include url, which holds the API key.
func (t *HTTPTransport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			return nil, uerr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Result{Status: resp.StatusCode, Body: data}, nil
}

// Close releases idle keep-alive connections.
func (t *HTTPTransport) Close() {
	t.client.CloseIdleConnections()
}
