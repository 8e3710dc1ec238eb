package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/svcclient"
)

const transportHTTP = "http"

// HTTPClient calls the orchestrator's REST API.
type HTTPClient struct {
	http *svcclient.Client
}

// NewHTTPClient creates an HTTP orchestrator client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{http: svcclient.New("orchestrator", baseURL, apiKey, timeout)}
}

func (c *HTTPClient) SendMultiChannel(ctx context.Context, recipientID string, req *models.NotificationRequest, channels []string) (*models.OrchestrationResult, error) {
	payload, err := prepare(recipientID, req, channels)
	if err != nil {
		return nil, err
	}

	var result models.OrchestrationResult
	if err := svcclient.SendData(ctx, c.http, http.MethodPost, "/api/v1/notifications/send", payload, &result); err != nil {
		metrics.OrchestratorRequests.WithLabelValues(transportHTTP, metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("send notification to %s: %w", recipientID, err)
	}
	metrics.OrchestratorRequests.WithLabelValues(transportHTTP, metrics.ResultSuccess).Inc()
	return &result, nil
}

func (c *HTTPClient) GetDeliveryStatus(ctx context.Context, notificationID string) ([]models.DeliveryStatus, error) {
	var statuses []models.DeliveryStatus
	path := "/api/v1/notifications/" + url.PathEscape(notificationID) + "/deliveries"
	if err := svcclient.GetData(ctx, c.http, path, &statuses); err != nil {
		return nil, fmt.Errorf("get delivery status: %w", err)
	}
	return statuses, nil
}

func (c *HTTPClient) ResendFailed(ctx context.Context, deliveryID string) (bool, error) {
	var result resendResult
	path := "/api/v1/notifications/deliveries/" + url.PathEscape(deliveryID) + "/resend"
	if err := svcclient.SendData(ctx, c.http, http.MethodPost, path, nil, &result); err != nil {
		return false, fmt.Errorf("resend delivery: %w", err)
	}
	return result.Resent, nil
}
