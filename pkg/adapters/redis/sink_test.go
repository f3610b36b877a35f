package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitzies/pulseflow/pkg/adapters/redis"
	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestEventLog_Contract(t *testing.T) {
	_, client := setupRedis(t)
	ports.RunEventLogContract(t, redis.NewEventLog(client))
}

func TestEventLog_TTL_Expiration(t *testing.T) {
	mr, client := setupRedis(t)

	log := redis.NewEventLog(client, redis.WithEventTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, "run-ttl", domain.ProgressEvent{
		Type:  domain.EventNodeStart,
		RunID: "run-ttl",
	}))

	got, err := log.Events(ctx, "run-ttl")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// miniredis only expires on explicit time travel.
	mr.FastForward(2 * time.Second)

	got, err = log.Events(ctx, "run-ttl")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEventLog_CustomPrefix(t *testing.T) {
	mr, client := setupRedis(t)

	log := redis.NewEventLog(client, redis.WithEventPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, "run-1", domain.ProgressEvent{Type: domain.EventNodeStart}))
	assert.True(t, mr.Exists("custom:run-1"))
}
