package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amesa-systems/amesa-notify/common/middleware"
	"github.com/amesa-systems/amesa-notify/notify/internal/handlers"
)

// Token scopes checked on protected routes.
const (
	ScopeWebhook = "webhook"
	ScopeAdmin   = "admin"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Webhook *handlers.WebhookHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
}

// NewRouter constructs a ServeMux with notify API routes registered. A nil
// validator leaves the webhook and admin routes open.
func NewRouter(h Handlers, tokens middleware.TokenValidator) http.Handler {
	mux := http.NewServeMux()

	webhook := middleware.RequireServiceToken(tokens, ScopeWebhook)
	admin := middleware.RequireServiceToken(tokens, ScopeAdmin)

	// Event bus webhook
	mux.Handle("POST /api/v1/events/webhook", webhook(http.HandlerFunc(h.Webhook.HandleEvent)))

	// Operator API
	if h.Admin != nil {
		mux.Handle("GET /api/v1/admin/events/{id}", admin(http.HandlerFunc(h.Admin.GetEvent)))
		mux.Handle("DELETE /api/v1/admin/events/{id}/state", admin(http.HandlerFunc(h.Admin.ResetEvent)))
		mux.Handle("GET /api/v1/dlq", admin(http.HandlerFunc(h.Admin.ListDLQ)))
		mux.Handle("GET /api/v1/dlq/stats", admin(http.HandlerFunc(h.Admin.DLQStats)))
		mux.Handle("DELETE /api/v1/dlq", admin(http.HandlerFunc(h.Admin.PurgeDLQ)))
	}

	// Health endpoints
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
