// Package gate decides, per event id, whether a delivery is processed,
// short-circuited as a duplicate or abandoned after its retry budget.
//
// The read-check and the final mark are separate store operations. Two
// concurrent deliveries of the same id can both pass Admit and both run the
// handler; downstream channels are expected to tolerate that duplicate.
package gate

import (
	"context"
	"log/slog"
	"time"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/store"
)

const (
	DefaultMaxRetries = 3
	DefaultTTL        = 24 * time.Hour
)

// Decision is the gate's verdict for a delivery.
type Decision int

const (
	// Process means the event is unseen or within budget.
	Process Decision = iota
	// Duplicate means the event was already processed.
	Duplicate
	// Abandon means the retry budget is spent; the event is now marked processed.
	Abandon
)

func (d Decision) String() string {
	switch d {
	case Process:
		return "process"
	case Duplicate:
		return "duplicate"
	case Abandon:
		return "abandon"
	default:
		return "unknown"
	}
}

// ProcessedKey is the idempotency record key for eventID.
func ProcessedKey(eventID string) string { return "processed:" + eventID }

// RetryKey is the retry counter key for eventID.
func RetryKey(eventID string) string { return "retry:" + eventID }

type Gate struct {
	store      store.Store
	maxRetries int
	ttl        time.Duration
	logger     *logging.Logger
}

func New(s store.Store, maxRetries int, ttl time.Duration, logger *logging.Logger) *Gate {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gate{store: s, maxRetries: maxRetries, ttl: ttl, logger: logger}
}

// MaxRetries returns the configured retry budget.
func (g *Gate) MaxRetries() int { return g.maxRetries }

// Admit reads the idempotency record and retry counter. It returns the
// decision and the number of failed attempts seen so far. Read failures are
// treated as "unseen" so a store outage never drops events.
func (g *Gate) Admit(ctx context.Context, eventID string) (Decision, int) {
	processed, _, err := g.store.GetBool(ctx, ProcessedKey(eventID))
	if err != nil {
		g.storeError(ctx, "get_processed", err)
		processed = false
	}
	if processed {
		return Duplicate, 0
	}

	retries, _, err := g.store.GetInt(ctx, RetryKey(eventID))
	if err != nil {
		g.storeError(ctx, "get_retry", err)
		retries = 0
	}

	if retries >= g.maxRetries {
		g.logger.WarnContext(ctx, "event exceeded max retries, marking as processed",
			logging.Attempt(retries), slog.Int("max_retries", g.maxRetries))
		g.MarkDone(ctx, eventID)
		return Abandon, retries
	}

	return Process, retries
}

// MarkDone writes processed=true and clears the retry counter.
func (g *Gate) MarkDone(ctx context.Context, eventID string) {
	if err := g.store.SetBool(ctx, ProcessedKey(eventID), true, g.ttl); err != nil {
		g.storeError(ctx, "set_processed", err)
	}
	if err := g.store.Delete(ctx, RetryKey(eventID)); err != nil {
		g.storeError(ctx, "delete_retry", err)
	}
}

// MarkFailed increments the retry counter and returns the new value.
// On store failure it returns 0.
func (g *Gate) MarkFailed(ctx context.Context, eventID string) int {
	n, err := g.store.Increment(ctx, RetryKey(eventID), g.ttl)
	if err != nil {
		g.storeError(ctx, "increment_retry", err)
		return 0
	}
	return n
}

// State is the stored view of one event id.
type State struct {
	EventID    string `json:"eventId"`
	Processed  bool   `json:"processed"`
	Retries    int    `json:"retries"`
	MaxRetries int    `json:"maxRetries"`
}

// State reads the records for eventID without changing them.
func (g *Gate) State(ctx context.Context, eventID string) (State, error) {
	st := State{EventID: eventID, MaxRetries: g.maxRetries}

	processed, _, err := g.store.GetBool(ctx, ProcessedKey(eventID))
	if err != nil {
		return st, err
	}
	retries, _, err := g.store.GetInt(ctx, RetryKey(eventID))
	if err != nil {
		return st, err
	}
	st.Processed = processed
	st.Retries = retries
	return st, nil
}

// Reset clears both records so the next delivery of eventID runs again.
func (g *Gate) Reset(ctx context.Context, eventID string) error {
	return g.store.Delete(ctx, ProcessedKey(eventID), RetryKey(eventID))
}

func (g *Gate) storeError(ctx context.Context, op string, err error) {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	g.logger.WarnContext(ctx, "idempotency store operation failed, continuing",
		slog.String("op", op), logging.Error(err))
}
