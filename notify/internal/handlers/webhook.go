package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/amesa-systems/amesa-notify/common/httputil"
	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/service"
	"github.com/amesa-systems/amesa-notify/notify/internal/validator"
)

const DefaultMaxBodyBytes = 1 << 20

// Webhook error bodies.
const (
	errBodyRequired  = "Request body is required"
	errBodyTooLarge  = "Request body too large"
	errInvalidJSON   = "Invalid JSON payload"
	errUntrusted     = "Untrusted event source"
	errRateLimited   = "Rate limit exceeded"
	errInternal      = "Internal server error processing event"
	invalidStructure = "Invalid event structure: "
)

// Processor runs one delivery through the pipeline.
type Processor interface {
	Process(ctx context.Context, env *models.Envelope) (service.Result, error)
}

type WebhookHandler struct {
	processor    Processor
	maxBodyBytes int64
	logger       *logging.Logger
}

func NewWebhookHandler(p Processor, maxBodyBytes int64, logger *logging.Logger) *WebhookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{processor: p, maxBodyBytes: maxBodyBytes, logger: logger}
}

// HandleEvent is POST /api/v1/events/webhook.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, http.StatusRequestEntityTooLarge, errBodyTooLarge)
			return
		}
		h.fail(w, http.StatusBadRequest, errBodyRequired)
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		h.fail(w, http.StatusBadRequest, errBodyRequired)
		return
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.logger.WarnContext(r.Context(), "invalid webhook payload", logging.Error(err))
		h.fail(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	res, err := h.processor.Process(r.Context(), &env)
	if err != nil {
		status := service.HTTPStatus(err)
		h.fail(w, status, errorMessage(err, status))
		return
	}

	metrics.WebhookRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	httputil.WriteJSON(w, http.StatusOK, models.WebhookResponse{Success: true, Message: res.Message()})
}

func (h *WebhookHandler) fail(w http.ResponseWriter, status int, msg string) {
	metrics.WebhookRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	httputil.WriteError(w, status, msg)
}

func errorMessage(err error, status int) string {
	var malformed *validator.MalformedError
	switch {
	case errors.As(err, &malformed):
		return invalidStructure + malformed.Reason
	case errors.Is(err, validator.ErrUntrustedSource):
		return errUntrusted
	case status == http.StatusTooManyRequests:
		return errRateLimited
	case status == http.StatusBadRequest:
		return invalidStructure + err.Error()
	default:
		return errInternal
	}
}
