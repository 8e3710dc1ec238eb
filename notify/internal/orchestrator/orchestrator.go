// Package orchestrator talks to the channel orchestrator, the collaborator
// that performs per-channel delivery. Two transports are provided: HTTP and
// NATS request/reply.
package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

// ErrEmptyRecipient is returned when SendMultiChannel is called without a
// recipient id.
var ErrEmptyRecipient = errors.New("recipient id is required")

// Orchestrator is the outbound delivery contract used by event handlers.
type Orchestrator interface {
	SendMultiChannel(ctx context.Context, recipientID string, req *models.NotificationRequest, channels []string) (*models.OrchestrationResult, error)
	GetDeliveryStatus(ctx context.Context, notificationID string) ([]models.DeliveryStatus, error)
	ResendFailed(ctx context.Context, deliveryID string) (bool, error)
}

// prepare copies req and fills the recipient, channel list and language.
// The caller's value is never mutated.
func prepare(recipientID string, req *models.NotificationRequest, channels []string) (*models.NotificationRequest, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, ErrEmptyRecipient
	}
	out := models.NotificationRequest{}
	if req != nil {
		out = *req
	}
	out.RecipientID = recipientID
	if len(channels) > 0 {
		out.Channels = append([]string(nil), channels...)
	} else if len(out.Channels) == 0 {
		out.Channels = models.DefaultChannels()
	}
	if out.Language == "" {
		out.Language = models.DefaultLanguage
	}
	return &out, nil
}

// resendResult is the payload of a resend reply.
type resendResult struct {
	Resent bool `json:"resent"`
}
