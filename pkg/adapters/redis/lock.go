package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/fitzies/pulseflow/pkg/ports"
)

var (
	// ErrLockAcquire is returned when the lock cannot be acquired.
	ErrLockAcquire = errors.New("failed to acquire wallet lock")
)

// Locker implements ports.WalletLocker using Redis. Overlapping runs of the
// same workflow share one signing key; the lock keeps their transactions
// from interleaving.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a new Redis wallet locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// Lock acquires the wallet lock for a workflow using Redis SET NX PX.
func (l *Locker) Lock(ctx context.Context, workflowID string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "wallet-lock:" + workflowID

	// Value is unique per acquisition so release is safe: the Lua script
	// below only deletes the key if it still holds our value.
	val := fmt.Sprintf("%d", time.Now().UnixNano())

	// Use a simple polling loop with backoff to acquire the lock.

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			// Try to acquire
			success, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
			if err != nil {
				return nil, fmt.Errorf("redis error acquiring lock: %w", err)
			}
			if success {
				// Lock acquired!
				return func(ctx context.Context) error {
					script := `
						if redis.call("get", KEYS[1]) == ARGV[1] then
							return redis.call("del", KEYS[1])
						else
							return 0
						end
					`
					return l.client.Eval(ctx, script, []string{lockKey}, val).Err()
				}, nil
			}
			// Retry...
		}
	}
}
