package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a RunLocker.
type UnlockFunc func(ctx context.Context) error

// RunLocker guarantees that at most one task runs at a time across processes sharing a store.
type RunLocker interface {
	// TryLock acquires the run lock for key without waiting.
	// It returns domain.ErrLocked (wrapped) when another holder owns the lock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
