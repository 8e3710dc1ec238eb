package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/store"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Gate) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, New(store.NewRedisStore(client), 3, 24*time.Hour, logging.Discard())
}

func TestGate_UnseenEventIsProcessed(t *testing.T) {
	_, g := setupTestRedis(t)

	decision, retries := g.Admit(context.Background(), "evt-1")
	assert.Equal(t, Process, decision)
	assert.Equal(t, 0, retries)
}

func TestGate_MarkDone(t *testing.T) {
	mr, g := setupTestRedis(t)
	ctx := context.Background()

	g.MarkFailed(ctx, "evt-1")
	g.MarkDone(ctx, "evt-1")

	v, err := mr.Get(ProcessedKey("evt-1"))
	require.NoError(t, err)
	assert.Equal(t, "true", v)
	assert.Equal(t, 24*time.Hour, mr.TTL(ProcessedKey("evt-1")))
	assert.False(t, mr.Exists(RetryKey("evt-1")))

	decision, _ := g.Admit(ctx, "evt-1")
	assert.Equal(t, Duplicate, decision)
}

func TestGate_RetryBudget(t *testing.T) {
	mr, g := setupTestRedis(t)
	ctx := context.Background()

	for attempt := 1; attempt <= 3; attempt++ {
		decision, retries := g.Admit(ctx, "evt-fail")
		require.Equal(t, Process, decision, "attempt %d", attempt)
		assert.Equal(t, attempt-1, retries)
		assert.Equal(t, attempt, g.MarkFailed(ctx, "evt-fail"))
	}

	decision, retries := g.Admit(ctx, "evt-fail")
	assert.Equal(t, Abandon, decision)
	assert.Equal(t, 3, retries)
	assert.False(t, mr.Exists(RetryKey("evt-fail")))

	decision, _ = g.Admit(ctx, "evt-fail")
	assert.Equal(t, Duplicate, decision)
}

func TestGate_StoreDownFailsOpen(t *testing.T) {
	mr, g := setupTestRedis(t)
	mr.Close()
	ctx := context.Background()

	decision, retries := g.Admit(ctx, "evt-1")
	assert.Equal(t, Process, decision)
	assert.Equal(t, 0, retries)

	assert.NotPanics(t, func() { g.MarkDone(ctx, "evt-1") })
	assert.Equal(t, 0, g.MarkFailed(ctx, "evt-1"))
}

type flakyStore struct {
	store.Store
	getBoolErr error
}

func (f *flakyStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	if f.getBoolErr != nil {
		return false, false, f.getBoolErr
	}
	return f.Store.GetBool(ctx, key)
}

func TestGate_ProcessedReadFailureStillHonorsRetryBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set(RetryKey("evt-9"), "3"))
	g := New(&flakyStore{Store: store.NewRedisStore(client), getBoolErr: errors.New("timeout")}, 3, time.Hour, logging.Discard())

	decision, _ := g.Admit(context.Background(), "evt-9")
	assert.Equal(t, Abandon, decision)
}

func TestGate_StateAndReset(t *testing.T) {
	mr, g := setupTestRedis(t)
	ctx := context.Background()

	g.MarkFailed(ctx, "evt-2")
	g.MarkFailed(ctx, "evt-2")

	st, err := g.State(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, State{EventID: "evt-2", Processed: false, Retries: 2, MaxRetries: 3}, st)

	require.NoError(t, g.Reset(ctx, "evt-2"))
	assert.False(t, mr.Exists(RetryKey("evt-2")))

	decision, retries := g.Admit(ctx, "evt-2")
	assert.Equal(t, Process, decision)
	assert.Equal(t, 0, retries)
}

func TestNew_Defaults(t *testing.T) {
	g := New(nil, 0, 0, nil)
	assert.Equal(t, DefaultMaxRetries, g.MaxRetries())
	assert.Equal(t, DefaultTTL, g.ttl)
	assert.Equal(t, "abandon", Abandon.String())
}
