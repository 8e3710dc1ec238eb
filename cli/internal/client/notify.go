package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Envelope is the webhook body the CLI sends.
type Envelope struct {
	Version    string          `json:"version,omitempty"`
	ID         string          `json:"id,omitempty"`
	DetailType string          `json:"detail-type"`
	Source     string          `json:"source"`
	Account    string          `json:"account,omitempty"`
	Time       time.Time       `json:"time"`
	Region     string          `json:"region,omitempty"`
	Detail     json.RawMessage `json:"detail"`
}

// WebhookResult is the webhook answer, success or not.
type WebhookResult struct {
	StatusCode int    `json:"status"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

type EventState struct {
	EventID    string `json:"eventId"`
	Processed  bool   `json:"processed"`
	Retries    int    `json:"retries"`
	MaxRetries int    `json:"maxRetries"`
}

type Outcome struct {
	EventID    string    `json:"event_id"`
	DetailType string    `json:"detail_type"`
	Source     string    `json:"source"`
	Outcome    string    `json:"outcome"`
	Attempt    int       `json:"attempt"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

type EventDetail struct {
	State    EventState `json:"state"`
	Outcomes []Outcome  `json:"outcomes"`
}

type FailedEvent struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Envelope    *Envelope `json:"envelope"`
	Error       string    `json:"error"`
	Reason      string    `json:"reason"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"last_attempt"`
}

type NotifyClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewNotifyClient(baseURL, token string) *NotifyClient {
	return &NotifyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SendEvent posts env to the webhook. Non-2xx answers are returned in the
// result, not as an error; only transport failures are errors.
func (c *NotifyClient) SendEvent(ctx context.Context, env *Envelope) (*WebhookResult, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/events/webhook", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &WebhookResult{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode webhook response (status %d): %w", resp.StatusCode, err)
	}
	result.StatusCode = resp.StatusCode
	return result, nil
}

func (c *NotifyClient) GetEvent(ctx context.Context, id string) (*EventDetail, error) {
	var detail EventDetail
	if err := c.getJSON(ctx, "/api/v1/admin/events/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *NotifyClient) ResetEvent(ctx context.Context, id string) error {
	return c.expectOK(ctx, http.MethodDelete, "/api/v1/admin/events/"+url.PathEscape(id)+"/state")
}

func (c *NotifyClient) ListDLQ(ctx context.Context, limit int) ([]FailedEvent, error) {
	var out struct {
		Events []FailedEvent `json:"events"`
	}
	path := "/api/v1/dlq"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *NotifyClient) DLQStats(ctx context.Context) (map[string]interface{}, error) {
	var stats map[string]interface{}
	if err := c.getJSON(ctx, "/api/v1/dlq/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *NotifyClient) PurgeDLQ(ctx context.Context) error {
	return c.expectOK(ctx, http.MethodDelete, "/api/v1/dlq")
}

// Replay clears the stored state of the dead-lettered event id and sends
// its envelope again.
func (c *NotifyClient) Replay(ctx context.Context, id string, limit int) (*WebhookResult, error) {
	entries, err := c.ListDLQ(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID != id && (e.Envelope == nil || e.Envelope.ID != id) {
			continue
		}
		if e.Envelope == nil {
			return nil, fmt.Errorf("dead-letter entry %s has no envelope", id)
		}
		if err := c.ResetEvent(ctx, e.Envelope.ID); err != nil {
			return nil, fmt.Errorf("reset event state: %w", err)
		}
		return c.SendEvent(ctx, e.Envelope)
	}
	return nil, fmt.Errorf("dead-letter entry %s not found", id)
}

func (c *NotifyClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *NotifyClient) expectOK(ctx context.Context, method, path string) error {
	resp, err := c.do(ctx, method, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func (c *NotifyClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}
