package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/common/messaging"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/svcclient"
)

const transportNATS = "nats"

// SendCommand is published on the send subject.
type SendCommand struct {
	EventID string                      `json:"eventId,omitempty"`
	Request *models.NotificationRequest `json:"request"`
}

// StatusQuery is published on the status subject.
type StatusQuery struct {
	NotificationID string `json:"notificationId"`
}

// ResendCommand is published on the resend subject.
type ResendCommand struct {
	DeliveryID string `json:"deliveryId"`
}

// NATSClient uses request/reply on the notify.orchestrator.* subjects.
// Replies carry the same {success, data, message} envelope as the REST API.
type NATSClient struct {
	requester messaging.Requester
	timeout   time.Duration
}

// NewNATSClient creates a NATS orchestrator client.
func NewNATSClient(requester messaging.Requester, timeout time.Duration) *NATSClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NATSClient{requester: requester, timeout: timeout}
}

func (c *NATSClient) SendMultiChannel(ctx context.Context, recipientID string, req *models.NotificationRequest, channels []string) (*models.OrchestrationResult, error) {
	payload, err := prepare(recipientID, req, channels)
	if err != nil {
		return nil, err
	}

	cmd := SendCommand{EventID: logging.EventIDFromContext(ctx), Request: payload}
	var result models.OrchestrationResult
	if err := request(ctx, c, messaging.SubjectOrchestratorSend, cmd, &result); err != nil {
		metrics.OrchestratorRequests.WithLabelValues(transportNATS, metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("send notification to %s: %w", recipientID, err)
	}
	metrics.OrchestratorRequests.WithLabelValues(transportNATS, metrics.ResultSuccess).Inc()
	return &result, nil
}

func (c *NATSClient) GetDeliveryStatus(ctx context.Context, notificationID string) ([]models.DeliveryStatus, error) {
	var statuses []models.DeliveryStatus
	if err := request(ctx, c, messaging.SubjectOrchestratorStatus, StatusQuery{NotificationID: notificationID}, &statuses); err != nil {
		return nil, fmt.Errorf("get delivery status: %w", err)
	}
	return statuses, nil
}

func (c *NATSClient) ResendFailed(ctx context.Context, deliveryID string) (bool, error) {
	var result resendResult
	if err := request(ctx, c, messaging.SubjectOrchestratorResend, ResendCommand{DeliveryID: deliveryID}, &result); err != nil {
		return false, fmt.Errorf("resend delivery: %w", err)
	}
	return result.Resent, nil
}

func request[T any](ctx context.Context, c *NATSClient, subject string, payload any, out *T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	msg, err := c.requester.Request(ctx, subject, data, c.timeout)
	if err != nil {
		return fmt.Errorf("request %s: %w", subject, err)
	}

	var reply svcclient.APIResponse[T]
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if !reply.Success {
		return fmt.Errorf("request %s unsuccessful: %s", subject, reply.Message)
	}
	*out = reply.Data
	return nil
}
