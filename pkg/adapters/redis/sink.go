// Package redis provides Redis-backed adapters: a durable execution log, a
// shared run-cancellation registry, and a distributed wallet lock. They let
// multiple engine hosts coordinate through one Redis instance.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// EventLog implements ports.EventLog on a Redis list per run.
type EventLog struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// EventLogOption configures an EventLog.
type EventLogOption func(*EventLog)

// WithEventTTL sets the expiration for a run's event list.
func WithEventTTL(ttl time.Duration) EventLogOption {
	return func(l *EventLog) {
		l.ttl = ttl
	}
}

// WithEventPrefix sets the key prefix for event lists.
func WithEventPrefix(prefix string) EventLogOption {
	return func(l *EventLog) {
		l.prefix = prefix
	}
}

// NewEventLog creates a Redis event log from an existing client.
func NewEventLog(client *backend.Client, opts ...EventLogOption) *EventLog {
	log := &EventLog{
		client: client,
		prefix: "pulseflow:events:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(log)
	}
	return log
}

func (l *EventLog) key(runID string) string {
	return l.prefix + runID
}

// Append pushes the event onto the run's list.
func (l *EventLog) Append(ctx context.Context, runID string, event domain.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := l.client.Pipeline()
	pipe.RPush(ctx, l.key(runID), data)
	if l.ttl > 0 {
		pipe.Expire(ctx, l.key(runID), l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Events returns the run's events in append order. Output records
// round-tripped through JSON carry numbers as float64 or strings; consumers
// needing exact amounts should read them with that in mind.
func (l *EventLog) Events(ctx context.Context, runID string) ([]domain.ProgressEvent, error) {
	raw, err := l.client.LRange(ctx, l.key(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	events := make([]domain.ProgressEvent, 0, len(raw))
	for _, item := range raw {
		var ev domain.ProgressEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
