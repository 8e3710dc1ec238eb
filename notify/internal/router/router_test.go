package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

type ticketPayload struct {
	UserID      string `json:"userId"`
	TicketCount int    `json:"ticketCount"`
}

func env(detailType, detail string) *models.Envelope {
	return &models.Envelope{ID: "evt-1", DetailType: detailType, Source: "amesa.lottery", Detail: json.RawMessage(detail)}
}

func TestRoute_DecodesAndInvokes(t *testing.T) {
	r := New(logging.Discard())
	var got ticketPayload
	Register(r, "TicketPurchased", func(ctx context.Context, e *models.Envelope, p ticketPayload) error {
		got = p
		return nil
	})

	handled, err := r.Route(context.Background(), env("TicketPurchased", `{"userId":"u1","ticketCount":2}`))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, ticketPayload{UserID: "u1", TicketCount: 2}, got)
}

func TestRoute_UnknownType(t *testing.T) {
	r := New(logging.Discard())
	calls := 0
	Register(r, "TicketPurchased", func(context.Context, *models.Envelope, ticketPayload) error {
		calls++
		return nil
	})

	handled, err := r.Route(context.Background(), env("SomethingNew", `{}`))
	assert.NoError(t, err)
	assert.False(t, handled)
	assert.Zero(t, calls)
}

func TestRoute_DecodeFailure(t *testing.T) {
	r := New(logging.Discard())
	calls := 0
	Register(r, "TicketPurchased", func(context.Context, *models.Envelope, ticketPayload) error {
		calls++
		return nil
	})
	var hookErr error
	r.OnDecodeFailure(func(_ context.Context, _ *models.Envelope, err error) { hookErr = err })

	handled, err := r.Route(context.Background(), env("TicketPurchased", `{"ticketCount":"two"}`))
	assert.NoError(t, err)
	assert.False(t, handled)
	assert.Zero(t, calls)
	assert.Error(t, hookErr)
}

func TestRoute_HandlerError(t *testing.T) {
	r := New(logging.Discard())
	boom := errors.New("orchestrator down")
	Register(r, "PasswordChanged", func(context.Context, *models.Envelope, map[string]any) error { return boom })

	handled, err := r.Route(context.Background(), env("PasswordChanged", `{}`))
	assert.True(t, handled)
	assert.ErrorIs(t, err, boom)
}

func TestRoute_HandlerPanic(t *testing.T) {
	r := New(logging.Discard())
	Register(r, "PasswordChanged", func(context.Context, *models.Envelope, map[string]any) error { panic("nil map") })

	handled, err := r.Route(context.Background(), env("PasswordChanged", `{}`))
	assert.False(t, handled)
	assert.ErrorContains(t, err, "panicked")
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := New(logging.Discard())
	h := func(context.Context, *models.Envelope, ticketPayload) error { return nil }
	Register(r, "TicketPurchased", h)
	assert.Panics(t, func() { Register(r, "TicketPurchased", h) })
}

func TestTypesAndHas(t *testing.T) {
	r := New(logging.Discard())
	h := func(context.Context, *models.Envelope, ticketPayload) error { return nil }
	Register(r, "B", h)
	Register(r, "A", h)

	assert.Equal(t, []string{"A", "B"}, r.Types())
	assert.True(t, r.Has("A"))
	assert.False(t, r.Has("C"))
}
