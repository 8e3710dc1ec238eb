package handlers

import (
	"context"
	"net/http"

	"github.com/amesa-systems/amesa-notify/common/httputil"
	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/dlq"
	"github.com/amesa-systems/amesa-notify/notify/internal/gate"
	"github.com/amesa-systems/amesa-notify/notify/internal/ledger"
)

const defaultDLQLimit = 50

// EventState reads and clears the idempotency records of an event.
type EventState interface {
	State(ctx context.Context, eventID string) (gate.State, error)
	Reset(ctx context.Context, eventID string) error
}

// AdminHandler serves the operator API. DLQ and Ledger may be nil when the
// backends are disabled.
type AdminHandler struct {
	state  EventState
	dlq    dlq.Store
	ledger ledger.Reader
	logger *logging.Logger
}

func NewAdminHandler(state EventState, store dlq.Store, reader ledger.Reader, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{state: state, dlq: store, ledger: reader, logger: logger}
}

// EventDetail is the body of GET /api/v1/admin/events/{id}.
type EventDetail struct {
	State    gate.State     `json:"state"`
	Outcomes []ledger.Entry `json:"outcomes"`
}

// GetEvent is GET /api/v1/admin/events/{id}.
func (h *AdminHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Event id is required")
		return
	}

	st, err := h.state.State(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read event state", logging.EventID(id), logging.Error(err))
		httputil.WriteError(w, http.StatusServiceUnavailable, "Idempotency store unavailable")
		return
	}

	detail := EventDetail{State: st, Outcomes: []ledger.Entry{}}
	if h.ledger != nil {
		entries, err := h.ledger.ListByEvent(r.Context(), id)
		if err != nil {
			h.logger.WarnContext(r.Context(), "failed to read event outcomes", logging.EventID(id), logging.Error(err))
		} else if entries != nil {
			detail.Outcomes = entries
		}
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// ResetEvent is DELETE /api/v1/admin/events/{id}/state.
func (h *AdminHandler) ResetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Event id is required")
		return
	}
	if err := h.state.Reset(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to reset event state", logging.EventID(id), logging.Error(err))
		httputil.WriteError(w, http.StatusServiceUnavailable, "Idempotency store unavailable")
		return
	}
	h.logger.InfoContext(r.Context(), "event state cleared", logging.EventID(id))
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Event state cleared",
	})
}

// ListDLQ is GET /api/v1/dlq?limit=N.
func (h *AdminHandler) ListDLQ(w http.ResponseWriter, r *http.Request) {
	if h.dlq == nil {
		httputil.WriteError(w, http.StatusNotFound, "Dead-letter queue is disabled")
		return
	}
	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), defaultDLQLimit)

	entries, err := h.dlq.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list dead-letter queue", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to list dead-letter queue")
		return
	}
	if entries == nil {
		entries = []dlq.FailedEvent{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": entries,
		"count":  len(entries),
	})
}

// DLQStats is GET /api/v1/dlq/stats.
func (h *AdminHandler) DLQStats(w http.ResponseWriter, r *http.Request) {
	if h.dlq == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"enabled": false})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.dlq.Stats(r.Context()))
}

// PurgeDLQ is DELETE /api/v1/dlq.
func (h *AdminHandler) PurgeDLQ(w http.ResponseWriter, r *http.Request) {
	if h.dlq == nil {
		httputil.WriteError(w, http.StatusNotFound, "Dead-letter queue is disabled")
		return
	}
	if err := h.dlq.Purge(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to purge dead-letter queue", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to purge dead-letter queue")
		return
	}
	h.logger.InfoContext(r.Context(), "dead-letter queue purged")
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Dead-letter queue purged",
	})
}
