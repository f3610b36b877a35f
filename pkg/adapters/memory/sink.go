package memory

import (
	"context"
	"sync"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// EventLog implements ports.EventLog in memory, keeping events in append
// order per run. Safe for concurrent use.
type EventLog struct {
	events map[string][]domain.ProgressEvent
	mu     sync.RWMutex
}

// NewEventLog creates a new in-memory event log.
func NewEventLog() *EventLog {
	return &EventLog{
		events: make(map[string][]domain.ProgressEvent),
	}
}

// Append records an event for the run.
func (l *EventLog) Append(ctx context.Context, runID string, event domain.ProgressEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[runID] = append(l.events[runID], event)
	return nil
}

// Events returns the run's events in append order.
func (l *EventLog) Events(ctx context.Context, runID string) ([]domain.ProgressEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := make([]domain.ProgressEvent, len(l.events[runID]))
	copy(events, l.events[runID])
	return events, nil
}
