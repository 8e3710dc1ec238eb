package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/bulk"
	"github.com/amesa-systems/amesa-notify/notify/internal/dlq"
	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/gate"
	"github.com/amesa-systems/amesa-notify/notify/internal/ledger"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/notifiers"
	"github.com/amesa-systems/amesa-notify/notify/internal/ratelimit"
	"github.com/amesa-systems/amesa-notify/notify/internal/router"
	"github.com/amesa-systems/amesa-notify/notify/internal/store"
	"github.com/amesa-systems/amesa-notify/notify/internal/validator"
)

type sendCall struct {
	recipientID string
	req         models.NotificationRequest
	channels    []string
}

type fakeOrchestrator struct {
	mu    sync.Mutex
	calls []sendCall
	err   error
}

func (f *fakeOrchestrator) SendMultiChannel(ctx context.Context, recipientID string, req *models.NotificationRequest, channels []string) (*models.OrchestrationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{recipientID: recipientID, req: *req, channels: append([]string(nil), channels...)})
	if f.err != nil {
		return nil, f.err
	}
	return &models.OrchestrationResult{NotificationID: "n-1", SuccessCount: len(channels)}, nil
}

func (f *fakeOrchestrator) GetDeliveryStatus(ctx context.Context, notificationID string) ([]models.DeliveryStatus, error) {
	return nil, nil
}

func (f *fakeOrchestrator) ResendFailed(ctx context.Context, deliveryID string) (bool, error) {
	return false, nil
}

func (f *fakeOrchestrator) Calls() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendCall(nil), f.calls...)
}

type recordingLedger struct {
	mu      sync.Mutex
	entries []ledger.Entry
	err     error
}

func (l *recordingLedger) Record(ctx context.Context, e ledger.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return l.err
}

func (l *recordingLedger) outcomes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Outcome)
	}
	return out
}

type fixture struct {
	mr       *miniredis.Miniredis
	orch     *fakeOrchestrator
	ledger   *recordingLedger
	dlq      *dlq.Queue
	router   *router.Router
	pipeline *Pipeline
}

type option func(*Config)

func withBudget(limit int, window time.Duration) option {
	return func(c *Config) {
		c.Budget = ratelimit.NewBudget(limit, window)
	}
}

func withTimeout(d time.Duration) option {
	return func(c *Config) { c.ProcessingTimeout = d }
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logging.Discard()
	orch := &fakeOrchestrator{}
	r := router.New(logger)
	notifiers.RegisterAll(r, &notifiers.Scope{
		Orchestrator: orch,
		Bulk:         bulk.New(bulk.DefaultOptions(), logger),
		Logger:       logger,
	})

	queue, err := dlq.NewQueue(t.TempDir(), logger)
	require.NoError(t, err)

	rec := &recordingLedger{}
	cfg := Config{
		Validator: validator.New(validator.NewSourceAllowList(events.DefaultSources())),
		Limiter:   ratelimit.NewRedisRateLimiter(client),
		Gate:      gate.New(store.NewRedisStore(client), 3, 24*time.Hour, logger),
		Router:    r,
		DLQ:       queue,
		Ledger:    rec,
		Logger:    logger,
	}
	for _, o := range opts {
		o(&cfg)
	}

	return &fixture{mr: mr, orch: orch, ledger: rec, dlq: queue, router: r, pipeline: New(cfg)}
}

func envelope(id, detailType, source string, detail any) *models.Envelope {
	raw, _ := json.Marshal(detail)
	return &models.Envelope{ID: id, DetailType: detailType, Source: source, Time: time.Now().UTC(), Detail: raw}
}

func ticketPurchased() *models.Envelope {
	return envelope("evt-1", events.TicketPurchased, events.SourceLottery, map[string]any{
		"userId":        "u1",
		"ticketCount":   2,
		"ticketNumbers": []string{"A1", "A2"},
	})
}

func TestProcess_TicketPurchasedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.pipeline.Process(ctx, ticketPurchased())
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeProcessed, res.Outcome)
	assert.Equal(t, MessageReceived, res.Message())
	assert.Equal(t, 1, res.Attempt)

	calls := f.orch.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "u1", calls[0].recipientID)
	assert.Equal(t, []string{"email", "webpush"}, calls[0].channels)

	v, err := f.mr.Get(gate.ProcessedKey("evt-1"))
	require.NoError(t, err)
	assert.Equal(t, "true", v)
	assert.False(t, f.mr.Exists(gate.RetryKey("evt-1")))
}

func TestProcess_RepeatIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.Process(ctx, ticketPurchased())
	require.NoError(t, err)
	keys := f.mr.Keys()
	ttl := f.mr.TTL(gate.ProcessedKey("evt-1"))

	res, err := f.pipeline.Process(ctx, ticketPurchased())
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, MessageDuplicate, res.Message())

	assert.Len(t, f.orch.Calls(), 1, "handler must not run again")
	assert.Equal(t, keys, f.mr.Keys())
	assert.Equal(t, ttl, f.mr.TTL(gate.ProcessedKey("evt-1")))
	assert.Equal(t, []string{ledger.OutcomeProcessed, ledger.OutcomeDuplicate}, f.ledger.outcomes())
}

func TestProcess_RetryBudgetIsBounded(t *testing.T) {
	f := newFixture(t)
	f.orch.err = errors.New("orchestrator unavailable")
	ctx := context.Background()

	env := func() *models.Envelope {
		return envelope("evt-pw", events.PasswordChanged, events.SourceAuth, map[string]any{
			"userId": "u1", "email": "u1@example.com",
		})
	}

	for attempt := 1; attempt <= 3; attempt++ {
		res, err := f.pipeline.Process(ctx, env())
		require.Error(t, err, "attempt %d", attempt)
		assert.ErrorIs(t, err, ErrProcessing)
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
		assert.Equal(t, attempt, res.Attempt)
	}
	require.Len(t, f.orch.Calls(), 3)

	res, err := f.pipeline.Process(ctx, env())
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeAbandoned, res.Outcome)
	assert.Equal(t, MessageAbandoned, res.Message())
	assert.Len(t, f.orch.Calls(), 3, "abandoned delivery must not invoke the handler")

	assert.True(t, f.mr.Exists(gate.ProcessedKey("evt-pw")))
	assert.False(t, f.mr.Exists(gate.RetryKey("evt-pw")))

	dead, err := f.dlq.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, dlq.ReasonRetryExhausted, dead[0].Reason)
	assert.Equal(t, "evt-pw", dead[0].Envelope.ID)

	// Later deliveries are plain duplicates.
	res, err = f.pipeline.Process(ctx, env())
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeDuplicate, res.Outcome)
}

func TestProcess_NonCriticalFailureIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.orch.err = errors.New("orchestrator unavailable")

	res, err := f.pipeline.Process(context.Background(), envelope("evt-fav", events.FavoriteAdded, events.SourceLottery, map[string]any{
		"userId": "u1", "houseId": "h1",
	}))
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeProcessed, res.Outcome)
	assert.True(t, f.mr.Exists(gate.ProcessedKey("evt-fav")))
}

func TestProcess_RateLimited(t *testing.T) {
	f := newFixture(t, withBudget(2, time.Minute))
	ctx := context.Background()

	for i, id := range []string{"evt-a", "evt-b"} {
		_, err := f.pipeline.Process(ctx, envelope(id, "SomethingNew", events.SourceContent, map[string]any{"n": i}))
		require.NoError(t, err)
	}

	_, err := f.pipeline.Process(ctx, envelope("evt-c", "SomethingNew", events.SourceContent, map[string]any{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(err))
	assert.False(t, f.mr.Exists(gate.ProcessedKey("evt-c")))
	assert.False(t, f.mr.Exists(gate.RetryKey("evt-c")))

	// Other sources keep their own budget.
	_, err = f.pipeline.Process(ctx, ticketPurchased())
	require.NoError(t, err)
}

func TestProcess_RateLimitIgnoresSourceCase(t *testing.T) {
	f := newFixture(t, withBudget(2, time.Minute))
	ctx := context.Background()

	sources := []string{"amesa.content", "AMESA.CONTENT", "Amesa.Content"}
	var limited int
	for i, source := range sources {
		_, err := f.pipeline.Process(ctx, envelope(fmt.Sprintf("evt-case-%d", i), "SomethingNew", source, map[string]any{}))
		if errors.Is(err, ErrRateLimited) {
			limited++
			continue
		}
		require.NoError(t, err)
	}
	assert.Equal(t, 1, limited)
	assert.True(t, f.mr.Exists("ratelimit:amesa.content"))
	assert.False(t, f.mr.Exists("ratelimit:AMESA.CONTENT"))
}

func TestProcess_UnknownTypeIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Process(context.Background(), envelope("evt-new", "BrandNewEvent", events.SourceContent, map[string]any{"x": 1}))
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeUnhandled, res.Outcome)
	assert.Equal(t, MessageReceived, res.Message())
	assert.Empty(t, f.orch.Calls())
	assert.True(t, f.mr.Exists(gate.ProcessedKey("evt-new")))
}

func TestProcess_DecodeFailureGoesToDLQ(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	env := &models.Envelope{
		ID:         "evt-bad",
		DetailType: events.TicketPurchased,
		Source:     events.SourceLottery,
		Detail:     json.RawMessage(`{"ticketCount":"two"}`),
	}
	res, err := f.pipeline.Process(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeUnhandled, res.Outcome)
	assert.True(t, f.mr.Exists(gate.ProcessedKey("evt-bad")))

	dead, err := f.dlq.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, dlq.ReasonDecodeFailed, dead[0].Reason)
}

func TestProcess_ValidationFailures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		env  *models.Envelope
		want error
	}{
		{
			name: "missing detail type",
			env:  envelope("e1", "", events.SourceAuth, map[string]any{}),
			want: validator.ErrMalformedEvent,
		},
		{
			name: "null detail",
			env:  &models.Envelope{ID: "e2", DetailType: events.UserLogin, Source: events.SourceAuth, Detail: json.RawMessage("null")},
			want: validator.ErrMalformedEvent,
		},
		{
			name: "untrusted source",
			env:  envelope("e3", events.UserLogin, "evil.corp", map[string]any{}),
			want: validator.ErrUntrustedSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pipeline.Process(context.Background(), tt.env)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
			assert.False(t, f.mr.Exists(gate.ProcessedKey(tt.env.ID)))
		})
	}
}

func TestProcess_AssignsMissingID(t *testing.T) {
	f := newFixture(t)
	env := ticketPurchased()
	env.ID = ""

	res, err := f.pipeline.Process(context.Background(), env)
	require.NoError(t, err)
	assert.NotEmpty(t, res.EventID)
	assert.Equal(t, res.EventID, env.ID)
	assert.True(t, f.mr.Exists(gate.ProcessedKey(res.EventID)))
}

func TestProcess_TimeoutIsRetryable(t *testing.T) {
	f := newFixture(t, withTimeout(30*time.Millisecond))
	router.Register[struct{}](f.router, "SlowEvent", func(ctx context.Context, env *models.Envelope, _ struct{}) error {
		<-ctx.Done()
		return ctx.Err()
	})

	_, err := f.pipeline.Process(context.Background(), envelope("evt-slow", "SlowEvent", events.SourceContent, map[string]any{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))

	v, err := f.mr.Get(gate.RetryKey("evt-slow"))
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestProcess_LedgerErrorsDoNotChangeResponse(t *testing.T) {
	f := newFixture(t)
	f.ledger.err = errors.New("ledger down")

	res, err := f.pipeline.Process(context.Background(), ticketPurchased())
	require.NoError(t, err)
	assert.Equal(t, ledger.OutcomeProcessed, res.Outcome)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&validator.MalformedError{Reason: "x"}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
