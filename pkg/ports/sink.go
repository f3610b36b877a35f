package ports

import (
	"context"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// EventSink receives progress events for persistence or streaming.
// The engine does not depend on how or whether events are stored; a sink
// error is logged and does not fail the run.
type EventSink interface {
	Append(ctx context.Context, runID string, event domain.ProgressEvent) error
}

// EventLog is an EventSink whose events can be read back, ordered by
// append time. Implemented by the memory and redis adapters.
type EventLog interface {
	EventSink
	Events(ctx context.Context, runID string) ([]domain.ProgressEvent, error)
}
