// Package ledger keeps an append-only record of what happened to each
// delivery of each event. Nothing in the request path reads it back.
package ledger

import (
	"context"
	"time"
)

// Outcomes recorded per delivery.
const (
	OutcomeProcessed   = "processed"
	OutcomeDuplicate   = "duplicate"
	OutcomeAbandoned   = "abandoned"
	OutcomeUnhandled   = "unhandled"
	OutcomeFailed      = "failed"
	OutcomeRateLimited = "rate_limited"
)

// Entry is one delivery outcome.
type Entry struct {
	EventID    string    `json:"event_id"`
	DetailType string    `json:"detail_type"`
	Source     string    `json:"source"`
	Outcome    string    `json:"outcome"`
	Attempt    int       `json:"attempt"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type Reader interface {
	ListByEvent(ctx context.Context, eventID string) ([]Entry, error)
}

// Ledger is a backend that both records and reads.
type Ledger interface {
	Recorder
	Reader
	Close() error
}

// Noop discards entries. Used when the ledger is disabled.
type Noop struct{}

func (Noop) Record(context.Context, Entry) error { return nil }

func (Noop) ListByEvent(context.Context, string) ([]Entry, error) { return nil, nil }

func (Noop) Close() error { return nil }

func stamp(e Entry) Entry {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	return e
}
