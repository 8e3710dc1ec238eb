// Package store holds the small typed records the idempotency gate keeps per
// event id.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a key-value store with per-key TTL.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	GetBool(ctx context.Context, key string) (bool, bool, error)
	SetBool(ctx context.Context, key string, value bool, ttl time.Duration) error
	GetInt(ctx context.Context, key string) (int, bool, error)
	SetInt(ctx context.Context, key string, value int, ttl time.Duration) error
	// Increment adds one to an integer record and refreshes its TTL.
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, found, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, true, fmt.Errorf("decode bool %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) SetBool(ctx context.Context, key string, value bool, ttl time.Duration) error {
	return s.Set(ctx, key, strconv.FormatBool(value), ttl)
}

func (s *RedisStore) GetInt(ctx context.Context, key string) (int, bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return 0, found, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("decode int %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) SetInt(ctx context.Context, key string, value int, ttl time.Duration) error {
	return s.Set(ctx, key, strconv.Itoa(value), ttl)
}

func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
