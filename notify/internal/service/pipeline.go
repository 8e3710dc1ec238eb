// Package service runs one webhook delivery through validation, rate
// limiting, the idempotency gate and the router, and records the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/dlq"
	"github.com/amesa-systems/amesa-notify/notify/internal/gate"
	"github.com/amesa-systems/amesa-notify/notify/internal/ledger"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/ratelimit"
	"github.com/amesa-systems/amesa-notify/notify/internal/router"
	"github.com/amesa-systems/amesa-notify/notify/internal/validator"
)

const DefaultProcessingTimeout = 25 * time.Second

var (
	// ErrRateLimited is returned when the source is over its budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrProcessing wraps every failure the bus should redeliver.
	ErrProcessing = errors.New("event processing failed")
)

// Response messages for acknowledged deliveries.
const (
	MessageReceived  = "Event received"
	MessageDuplicate = "Event already processed"
	MessageAbandoned = "Event processed (max retries reached)"
)

// Result describes an acknowledged delivery.
type Result struct {
	EventID string `json:"eventId"`
	Outcome string `json:"outcome"`
	Attempt int    `json:"attempt"`
}

// Message is the acknowledgment text for the outcome.
func (r Result) Message() string {
	switch r.Outcome {
	case ledger.OutcomeDuplicate:
		return MessageDuplicate
	case ledger.OutcomeAbandoned:
		return MessageAbandoned
	default:
		return MessageReceived
	}
}

// HTTPStatus maps a Process error to the webhook status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, validator.ErrMalformedEvent), errors.Is(err, validator.ErrUntrustedSource):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Config collects the pipeline's collaborators. Limiter, Budget, DLQ and
// Ledger are optional.
type Config struct {
	Validator         validator.Validator
	Limiter           ratelimit.RateLimiter
	Budget            *ratelimit.Budget
	Gate              *gate.Gate
	Router            *router.Router
	DLQ               dlq.Writer
	Ledger            ledger.Recorder
	LedgerBackend     string
	ProcessingTimeout time.Duration
	Logger            *logging.Logger
}

type Pipeline struct {
	validator     validator.Validator
	limiter       ratelimit.RateLimiter
	budget        *ratelimit.Budget
	gate          *gate.Gate
	router        *router.Router
	dlq           dlq.Writer
	ledger        ledger.Recorder
	ledgerBackend string
	timeout       time.Duration
	logger        *logging.Logger
	now           func() time.Time
}

// New builds a Pipeline and hooks decode failures on the router into the
// dead-letter queue.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		validator:     cfg.Validator,
		limiter:       cfg.Limiter,
		budget:        cfg.Budget,
		gate:          cfg.Gate,
		router:        cfg.Router,
		dlq:           cfg.DLQ,
		ledger:        cfg.Ledger,
		ledgerBackend: cfg.LedgerBackend,
		timeout:       cfg.ProcessingTimeout,
		logger:        cfg.Logger,
		now:           time.Now,
	}
	if p.validator == nil {
		p.validator = validator.NewChain(validator.ShapeValidator{})
	}
	if p.limiter == nil {
		p.limiter = &ratelimit.NoOpRateLimiter{}
	}
	if p.ledger == nil {
		p.ledger = ledger.Noop{}
	}
	if p.ledgerBackend == "" {
		p.ledgerBackend = "none"
	}
	if p.timeout <= 0 {
		p.timeout = DefaultProcessingTimeout
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}
	if p.router != nil {
		p.router.OnDecodeFailure(func(ctx context.Context, env *models.Envelope, err error) {
			p.deadLetter(ctx, env, err, dlq.ReasonDecodeFailed)
		})
	}
	return p
}

// Process handles one delivery. A nil error means the bus should consider
// the event delivered; HTTPStatus classifies everything else.
func (p *Pipeline) Process(ctx context.Context, env *models.Envelope) (Result, error) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	ctx = logging.ContextWithEventID(ctx, env.ID)
	res := Result{EventID: env.ID}

	if err := p.validator.Validate(ctx, env); err != nil {
		p.logger.WarnContext(ctx, "rejected event",
			logging.DetailType(env.DetailType), logging.Source(env.Source), logging.Error(err))
		return res, err
	}

	if !p.allow(ctx, env.Source) {
		p.record(ctx, env, ledger.OutcomeRateLimited, 0, nil, 0)
		return res, fmt.Errorf("%w: %s", ErrRateLimited, env.Source)
	}

	decision, retries := p.gate.Admit(ctx, env.ID)
	switch decision {
	case gate.Duplicate:
		p.logger.InfoContext(ctx, "event already processed, skipping", logging.DetailType(env.DetailType))
		res.Outcome = ledger.OutcomeDuplicate
		p.count(env, res.Outcome)
		p.record(ctx, env, res.Outcome, 0, nil, 0)
		return res, nil
	case gate.Abandon:
		res.Outcome = ledger.OutcomeAbandoned
		res.Attempt = retries
		p.count(env, res.Outcome)
		p.deadLetter(ctx, env, fmt.Errorf("retry budget of %d exhausted", p.gate.MaxRetries()), dlq.ReasonRetryExhausted)
		p.record(ctx, env, res.Outcome, retries, nil, 0)
		return res, nil
	}

	attempt := retries + 1
	res.Attempt = attempt

	start := p.now()
	handled, err := p.route(ctx, env)
	elapsed := p.now().Sub(start)
	metrics.ProcessingDuration.WithLabelValues(p.typeLabel(env)).Observe(elapsed.Seconds())

	if err != nil {
		n := p.gate.MarkFailed(ctx, env.ID)
		p.logger.ErrorContext(ctx, "event processing failed",
			logging.DetailType(env.DetailType), logging.Attempt(attempt),
			slog.Int("retry_count", n), logging.Duration(elapsed), logging.Error(err))
		res.Outcome = ledger.OutcomeFailed
		p.count(env, res.Outcome)
		p.record(ctx, env, res.Outcome, attempt, err, elapsed)
		return res, fmt.Errorf("%w: %w", ErrProcessing, err)
	}

	p.gate.MarkDone(ctx, env.ID)
	res.Outcome = ledger.OutcomeProcessed
	if !handled {
		res.Outcome = ledger.OutcomeUnhandled
	}
	p.logger.InfoContext(ctx, "event processed",
		logging.DetailType(env.DetailType), logging.Outcome(res.Outcome),
		logging.Attempt(attempt), logging.Duration(elapsed))
	p.count(env, res.Outcome)
	p.record(ctx, env, res.Outcome, attempt, nil, elapsed)
	return res, nil
}

// route runs the router under the processing timeout. The deadline is
// detached from the caller so a dropped connection does not cancel work
// that the gate has already admitted.
func (p *Pipeline) route(parent context.Context, env *models.Envelope) (bool, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), p.timeout)
	defer cancel()

	return p.router.Route(ctx, env)
}

// allow spends one unit of the source's budget. Sources are matched
// case-insensitively by the allow-list, so the budget key is too.
func (p *Pipeline) allow(ctx context.Context, source string) bool {
	if p.budget == nil {
		return true
	}
	limit, window := p.budget.Get()
	allowed, err := p.limiter.CheckAndIncrement(ctx, strings.ToLower(source), limit, window)
	if err != nil {
		metrics.RateLimitErrors.Inc()
		p.logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
			logging.Source(source), logging.Error(err))
		return true
	}
	if !allowed {
		p.logger.WarnContext(ctx, "rate limit exceeded", logging.Source(source),
			slog.Int("limit", limit), slog.Duration("window", window))
	}
	return allowed
}

func (p *Pipeline) deadLetter(ctx context.Context, env *models.Envelope, cause error, reason string) {
	if p.dlq == nil {
		return
	}
	if err := p.dlq.Write(ctx, env, cause, reason); err != nil {
		p.logger.ErrorContext(ctx, "failed to write event to dead-letter queue",
			logging.Reason(reason), logging.Error(err))
	}
}

func (p *Pipeline) record(ctx context.Context, env *models.Envelope, outcome string, attempt int, cause error, elapsed time.Duration) {
	entry := ledger.Entry{
		EventID:    env.ID,
		DetailType: env.DetailType,
		Source:     env.Source,
		Outcome:    outcome,
		Attempt:    attempt,
		DurationMs: elapsed.Milliseconds(),
		RecordedAt: p.now().UTC(),
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if err := p.ledger.Record(ctx, entry); err != nil {
		metrics.LedgerErrors.WithLabelValues(p.ledgerBackend).Inc()
		p.logger.WarnContext(ctx, "failed to record event outcome",
			logging.Outcome(outcome), logging.Error(err))
	}
}

func (p *Pipeline) count(env *models.Envelope, outcome string) {
	metrics.EventsTotal.WithLabelValues(p.typeLabel(env), outcome).Inc()
}

func (p *Pipeline) typeLabel(env *models.Envelope) string {
	if p.router != nil && p.router.Has(env.DetailType) {
		return env.DetailType
	}
	return "unknown"
}
