package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// CancelRegistry stores run-cancellation flags in Redis so any host replica
// can cancel a run started elsewhere. Chain adapters delegate their
// RunCancelled predicate here.
type CancelRegistry struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewCancelRegistry creates a cancel registry from an existing client.
// Flags expire after ttl; zero means they are kept forever.
func NewCancelRegistry(client *backend.Client, ttl time.Duration) *CancelRegistry {
	return &CancelRegistry{
		client: client,
		prefix: "pulseflow:cancelled:",
		ttl:    ttl,
	}
}

func (r *CancelRegistry) key(runID string) string {
	return r.prefix + runID
}

// Cancel marks a run as cancelled.
func (r *CancelRegistry) Cancel(ctx context.Context, runID string) error {
	if err := r.client.Set(ctx, r.key(runID), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cancel flag: %w", err)
	}
	return nil
}

// RunCancelled reports whether the run has been marked cancelled.
func (r *CancelRegistry) RunCancelled(ctx context.Context, runID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(runID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read cancel flag: %w", err)
	}
	return n > 0, nil
}
