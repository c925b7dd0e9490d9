// Package adapters implements adapter interfaces from the application layer.
package adapters

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/travelbooks/backoffice/internal/application/adapter"
)

// redisPassLock implements adapter.PassLock over a Redis SET NX key. The
// TTL guards against a crashed pass holding the lock forever.
type redisPassLock struct {
	client *redis.Client
}

// NewRedisPassLock creates a new Redis-backed pass lock instance.
func NewRedisPassLock(client *redis.Client) adapter.PassLock {
	return &redisPassLock{client: client}
}

// Acquire attempts to take the lock for key. Returns false when another
// pass already holds it.
func (l *redisPassLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "locked", ttl).Result()
}

// Release frees the lock for key.
func (l *redisPassLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
