package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitzies/pulseflow/pkg/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	_, client := setupRedis(t)
	locker := redis.NewLocker(client, "pulseflow:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "wf-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	// A second acquisition of the same workflow must block until released.
	blockedCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blockedCtx, "wf-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	// After release the lock is free again.
	unlock2, err := locker.Lock(ctx, "wf-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_IndependentWorkflows(t *testing.T) {
	_, client := setupRedis(t)
	locker := redis.NewLocker(client, "pulseflow:")
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "wf-1", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock1(ctx) }()

	// A different workflow must not contend.
	unlock2, err := locker.Lock(ctx, "wf-2", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
