package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a wallet lock.
type UnlockFunc func(ctx context.Context) error

// WalletLocker serializes access to a workflow's dedicated signing wallet.
// Two overlapping runs of the same workflow share one signing key, so their
// transactions must not interleave (nonce collisions). The lock is held for
// the duration of a run.
type WalletLocker interface {
	// Lock acquires the lock for the given workflow ID. It blocks until the
	// lock is acquired or the context is canceled. Returns an UnlockFunc
	// that MUST be called to release the lock.
	Lock(ctx context.Context, workflowID string, ttl time.Duration) (UnlockFunc, error)
}
