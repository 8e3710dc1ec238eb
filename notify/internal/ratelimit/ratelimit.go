package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
)

// KeyPrefix namespaces limiter windows in Redis.
const KeyPrefix = "ratelimit:"

type RateLimiter interface {
	// CheckAndIncrement records one request under key and reports whether it
	// fits in limit requests per window. Rejected requests are not recorded.
	CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Close() error
}

// Sliding log: one sorted-set member per admitted request, scored by its
// arrival time in microseconds.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl_ms)
		return 1
	else
		return 0
	end
`)

type redisRateLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisRateLimiter builds a limiter on an existing client. The caller
// owns the client; Close is a no-op.
func NewRedisRateLimiter(client redis.UniversalClient) RateLimiter {
	return &redisRateLimiter{client: client, now: time.Now}
}

func (r *redisRateLimiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}

	now := r.now().UnixMicro()
	windowStart := now - window.Microseconds()

	result, err := slidingWindow.Run(ctx, r.client,
		[]string{KeyPrefix + key},
		now, windowStart, limit, window.Milliseconds(), fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed := result == 1
	if !allowed {
		metrics.RateLimitHits.WithLabelValues(key).Inc()
	}

	return allowed, nil
}

func (r *redisRateLimiter) Close() error {
	return nil
}

// NoOpRateLimiter always allows requests (for testing or disabled rate limiting)
type NoOpRateLimiter struct{}

func (n *NoOpRateLimiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (n *NoOpRateLimiter) Close() error {
	return nil
}
