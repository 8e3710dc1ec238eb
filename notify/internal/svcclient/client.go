// Package svcclient is the shared HTTP plumbing for the read-only service
// clients. Responses use the platform envelope {success, data, message}.
package svcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
)

// HeaderServiceAuth carries the shared service API key.
const HeaderServiceAuth = "X-Service-Auth"

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("resource not found")

// APIResponse is the platform response envelope.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a client named name (used as the metrics label).
func New(name, baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a request with the service auth header and returns the response.
// The caller closes the body.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		request.Header.Set(HeaderServiceAuth, c.apiKey)
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.name, metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// GetData issues a GET and decodes the envelope's data into out.
func GetData[T any](ctx context.Context, c *Client, path string, out *T) error {
	return SendData(ctx, c, http.MethodGet, path, nil, out)
}

// SendData issues a request with an optional JSON body and decodes the
// envelope's data into out.
func SendData[T any](ctx context.Context, c *Client, method, path string, payload any, out *T) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.UpstreamRequests.WithLabelValues(c.name, metrics.ResultSuccess).Inc()
		return fmt.Errorf("%s %s: %w", c.name, path, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues(c.name, metrics.ResultFailure).Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", c.name, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var envelope APIResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.name, metrics.ResultFailure).Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		metrics.UpstreamRequests.WithLabelValues(c.name, metrics.ResultFailure).Inc()
		return fmt.Errorf("%s %s: request unsuccessful: %s", c.name, path, envelope.Message)
	}

	metrics.UpstreamRequests.WithLabelValues(c.name, metrics.ResultSuccess).Inc()
	*out = envelope.Data
	return nil
}
