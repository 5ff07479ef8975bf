package businessflow

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPending = "pending"

// IdempotencyStore remembers which transaction an idempotency key produced
type IdempotencyStore interface {
	// Reserve claims key; false means someone already holds it
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Lookup returns the stored value; ok is false when the key is absent
	Lookup(ctx context.Context, key string) (value string, ok bool, err error)
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// RedisIdempotencyStore keeps idempotency keys in redis under a prefix
type RedisIdempotencyStore struct {
	rc     *redis.Client
	prefix string
}

func NewRedisIdempotencyStore(rc *redis.Client, prefix string) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rc: rc, prefix: prefix + "ledger:idem:"}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rc.SetNX(ctx, s.prefix+key, idempotencyPending, ttl).Result()
}

func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rc.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rc.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rc.Del(ctx, s.prefix+key).Err()
}
