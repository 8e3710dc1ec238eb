package validator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/validator"
)

type mockValidator struct {
	validateFunc func(ctx context.Context, env *models.Envelope) error
	callCount    int
}

func (m *mockValidator) Validate(ctx context.Context, env *models.Envelope) error {
	m.callCount++
	if m.validateFunc != nil {
		return m.validateFunc(ctx, env)
	}
	return nil
}

func envelope(detailType, source, detail string) *models.Envelope {
	return &models.Envelope{ID: "evt-1", DetailType: detailType, Source: source, Detail: json.RawMessage(detail)}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	first := &mockValidator{validateFunc: func(context.Context, *models.Envelope) error {
		return errors.New("first failed")
	}}
	second := &mockValidator{}

	err := validator.NewChain(first, second).Validate(context.Background(), envelope("X", "Y", "{}"))

	assert.EqualError(t, err, "first failed")
	assert.Equal(t, 1, first.callCount)
	assert.Equal(t, 0, second.callCount)
}

func TestChain_Nil(t *testing.T) {
	var chain *validator.Chain
	assert.NoError(t, chain.Validate(context.Background(), envelope("", "", "")))
}

func TestStandardChain(t *testing.T) {
	chain := validator.New(validator.NewSourceAllowList(events.DefaultSources()))

	tests := []struct {
		name       string
		env        *models.Envelope
		wantErr    error
		wantReason string
	}{
		{name: "valid", env: envelope(events.TicketPurchased, "amesa.lottery", `{"userId":"u1"}`)},
		{name: "source is case-insensitive", env: envelope(events.TicketPurchased, "AMESA.Lottery", `{}`)},
		{name: "missing detail type", env: envelope("", "amesa.lottery", `{}`), wantErr: validator.ErrMalformedEvent, wantReason: "DetailType and Source are required"},
		{name: "missing source", env: envelope(events.TicketPurchased, "", `{}`), wantErr: validator.ErrMalformedEvent, wantReason: "DetailType and Source are required"},
		{name: "null detail", env: envelope(events.TicketPurchased, "amesa.lottery", `null`), wantErr: validator.ErrMalformedEvent, wantReason: "Detail is required"},
		{name: "absent detail", env: envelope(events.TicketPurchased, "amesa.lottery", ``), wantErr: validator.ErrMalformedEvent, wantReason: "Detail is required"},
		{name: "untrusted source", env: envelope(events.TicketPurchased, "evil.corp", `{}`), wantErr: validator.ErrUntrustedSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := chain.Validate(context.Background(), tt.env)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantReason != "" {
				var me *validator.MalformedError
				if assert.ErrorAs(t, err, &me) {
					assert.Equal(t, tt.wantReason, me.Reason)
				}
			}
		})
	}
}

func TestSourceAllowList_Set(t *testing.T) {
	list := validator.NewSourceAllowList([]string{"amesa.auth"})
	assert.True(t, list.Allowed("amesa.auth"))
	assert.False(t, list.Allowed("amesa.payment"))

	list.Set([]string{" Amesa.Payment ", ""})
	assert.False(t, list.Allowed("amesa.auth"))
	assert.True(t, list.Allowed("amesa.payment"))
	assert.Equal(t, []string{"amesa.payment"}, list.Sources())
}
