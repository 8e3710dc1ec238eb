package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook metrics
	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_webhook_requests_total",
			Help: "Total webhook requests by HTTP status code",
		},
		[]string{"status"},
	)

	// EventsTotal counts pipeline outcomes. detail_type is "unknown" for
	// unregistered types to keep cardinality bounded.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_events_total",
			Help: "Total events by detail type and outcome",
		},
		[]string{"detail_type", "outcome"},
	)

	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amesa_notify_processing_duration_seconds",
			Help:    "Duration of handler execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"detail_type"},
	)

	HandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_handler_failures_total",
			Help: "Total handler failures by detail type and criticality",
		},
		[]string{"detail_type", "critical"},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_rate_limit_hits_total",
			Help: "Total number of rate limited webhook requests",
		},
		[]string{"source"},
	)

	RateLimitErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "amesa_notify_rate_limit_errors_total",
			Help: "Total limiter store errors (requests allowed through)",
		},
	)

	// Idempotency store metrics
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_store_errors_total",
			Help: "Total idempotency store errors by operation",
		},
		[]string{"op"},
	)

	// Bulk dispatch metrics
	BulkItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_bulk_items_total",
			Help: "Total fan-out items by result",
		},
		[]string{"result"},
	)

	BulkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amesa_notify_bulk_duration_seconds",
			Help:    "Duration of a complete bulk dispatch in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		},
	)

	// Outbound collaborator metrics
	OrchestratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_orchestrator_requests_total",
			Help: "Total channel orchestrator calls by transport and result",
		},
		[]string{"transport", "result"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_upstream_requests_total",
			Help: "Total read-only upstream calls by client and result",
		},
		[]string{"client", "result"},
	)

	// Dead-letter and ledger metrics
	DLQWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_dlq_writes_total",
			Help: "Total envelopes written to the dead-letter queue by reason",
		},
		[]string{"reason"},
	)

	LedgerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amesa_notify_ledger_errors_total",
			Help: "Total outcome ledger write failures by backend",
		},
		[]string{"backend"},
	)

	ConfigReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "amesa_notify_config_reloads_total",
			Help: "Total configuration hot reloads applied",
		},
	)
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
