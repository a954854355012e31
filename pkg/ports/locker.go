package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates turn processing across replicas: the
// session manager acquires the conversation's lock before running a turn so
// the dialog stack is never mutated concurrently.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired, the context is
	// canceled, or the implementation gives up. The returned UnlockFunc
	// MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
