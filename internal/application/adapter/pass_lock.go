package adapter

import (
	"context"
	"time"
)

// PassLock serializes reconciliation passes: the match recorder must be the
// single writer while a pass runs. Implemented over Redis in production and
// miniredis in tests.
type PassLock interface {
	// Acquire attempts to take the lock for key. Returns false when another
	// pass already holds it. The lock expires after ttl as a crash guard.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock for key.
	Release(ctx context.Context, key string) error
}
