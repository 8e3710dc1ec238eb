package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEvent(t *testing.T) {
	var got Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/events/webhook", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"message":"Event received"}`))
	}))
	defer srv.Close()

	c := NewNotifyClient(srv.URL+"/", "tok")
	res, err := c.SendEvent(context.Background(), &Envelope{
		ID:         "evt-1",
		DetailType: "UserCreated",
		Source:     "amesa.auth",
		Time:       time.Now().UTC(),
		Detail:     json.RawMessage(`{"userId":"u1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.Success)
	assert.Equal(t, "Event received", res.Message)
	assert.Equal(t, "UserCreated", got.DetailType)
	assert.JSONEq(t, `{"userId":"u1"}`, string(got.Detail))
}

func TestSendEvent_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Rate limit exceeded"}`))
	}))
	defer srv.Close()

	res, err := NewNotifyClient(srv.URL, "").SendEvent(context.Background(), &Envelope{ID: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.False(t, res.Success)
	assert.Equal(t, "Rate limit exceeded", res.Error)
}

func TestGetEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/events/evt-9", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"state":{"eventId":"evt-9","processed":true,"retries":1,"maxRetries":3},
			"outcomes":[{"event_id":"evt-9","outcome":"processed","attempt":2}]}`))
	}))
	defer srv.Close()

	detail, err := NewNotifyClient(srv.URL, "").GetEvent(context.Background(), "evt-9")
	require.NoError(t, err)
	assert.True(t, detail.State.Processed)
	assert.Equal(t, 1, detail.State.Retries)
	require.Len(t, detail.Outcomes, 1)
	assert.Equal(t, "processed", detail.Outcomes[0].Outcome)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"insufficient scope"}`))
	}))
	defer srv.Close()

	c := NewNotifyClient(srv.URL, "tok")
	_, err := c.DLQStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "insufficient scope")

	assert.Error(t, c.PurgeDLQ(context.Background()))
}

func TestListDLQ_Limit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/dlq", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"events":[{"id":"a","reason":"retry_exhausted"}],"count":1}`))
	}))
	defer srv.Close()

	events, err := NewNotifyClient(srv.URL, "").ListDLQ(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "retry_exhausted", events[0].Reason)
}

func TestReplay(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/dlq":
			w.Write([]byte(`{"events":[{"id":"dlq-1","reason":"retry_exhausted",
				"envelope":{"id":"evt-7","detail-type":"PasswordChanged","source":"amesa.auth","detail":{}}}]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/admin/events/evt-7/state":
			w.Write([]byte(`{"status":"reset"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/events/webhook":
			w.Write([]byte(`{"success":true,"message":"Event received"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewNotifyClient(srv.URL, "")
	res, err := c.Replay(context.Background(), "evt-7", 50)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{
		"GET /api/v1/dlq",
		"DELETE /api/v1/admin/events/evt-7/state",
		"POST /api/v1/events/webhook",
	}, calls)

	_, err = c.Replay(context.Background(), "missing", 50)
	assert.ErrorContains(t, err, "not found")
}
