package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClient struct {
	connected  bool
	requestErr error
	requests   []string
}

func (f *fakeClient) Publish(context.Context, string, []byte) error { return nil }
func (f *fakeClient) PublishMsg(context.Context, *Message) error     { return nil }
func (f *fakeClient) Close() error                                   { return nil }
func (f *fakeClient) Drain() error                                   { return nil }
func (f *fakeClient) IsConnected() bool                              { return f.connected }

func (f *fakeClient) Request(_ context.Context, subject string, _ []byte, _ time.Duration) (*Message, error) {
	f.requests = append(f.requests, subject)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &Message{Subject: subject}, nil
}

func TestDLQSubject(t *testing.T) {
	assert.Equal(t, "notify.dlq.retry_exhausted", DLQSubject("retry_exhausted"))
	assert.Equal(t, "notify.dlq.decode_failed", DLQSubject("decode_failed"))
	assert.Equal(t, "notify.dlq.unknown", DLQSubject(""))
}

func TestCheckClientHealth(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		status := CheckClientHealth(context.Background(), nil)
		assert.False(t, status.Connected)
		assert.Equal(t, "client is nil", status.Error)
	})

	t.Run("disconnected", func(t *testing.T) {
		status := CheckClientHealth(context.Background(), &fakeClient{})
		assert.False(t, status.Connected)
		assert.NotEmpty(t, status.Error)
	})

	t.Run("no responders is healthy", func(t *testing.T) {
		c := &fakeClient{connected: true, requestErr: errors.New("nats: no responders available")}
		status := CheckClientHealth(context.Background(), c)
		assert.True(t, status.Connected)
		assert.Empty(t, status.Error)
		assert.Equal(t, []string{"_HEALTH.ping"}, c.requests)
	})
}
