package domain

import (
	"context"
	"time"
)

// ProgressEventType defines the category of a progress event.
type ProgressEventType string

const (
	EventNodeStart    ProgressEventType = "node_start"
	EventNodeComplete ProgressEventType = "node_complete"
	EventNodeError    ProgressEventType = "node_error"
	EventBranchTaken  ProgressEventType = "branch_taken"
	EventCancelled    ProgressEventType = "cancelled"
)

// ProgressEvent is emitted by the engine as a run advances. The engine never
// stores events itself; the host's execution-log sink persists them.
type ProgressEvent struct {
	Type      ProgressEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"run_id"`
	NodeID    string            `json:"node_id,omitempty"`
	NodeType  string            `json:"node_type,omitempty"`
	Iteration int               `json:"iteration,omitempty"`

	// Output is set on node_complete events.
	Output NodeOutput `json:"output,omitempty"`
	// Error is set on node_error events.
	Error *ParsedError `json:"error,omitempty"`
	// Branch is set on branch_taken events ("true" or "false").
	Branch string `json:"branch,omitempty"`
}

// RunHooks defines callbacks for engine observability. Any field may be nil.
type RunHooks struct {
	OnNodeStart    func(context.Context, *ProgressEvent)
	OnNodeComplete func(context.Context, *ProgressEvent)
	OnNodeError    func(context.Context, *ProgressEvent)
	OnBranchTaken  func(context.Context, *ProgressEvent)
	OnCancelled    func(context.Context, *ProgressEvent)
}

// MergeHooks fans one event out to several hook sets, in argument order.
func MergeHooks(hooks ...RunHooks) RunHooks {
	return RunHooks{
		OnNodeStart:    fanOut(hooks, func(h RunHooks) func(context.Context, *ProgressEvent) { return h.OnNodeStart }),
		OnNodeComplete: fanOut(hooks, func(h RunHooks) func(context.Context, *ProgressEvent) { return h.OnNodeComplete }),
		OnNodeError:    fanOut(hooks, func(h RunHooks) func(context.Context, *ProgressEvent) { return h.OnNodeError }),
		OnBranchTaken:  fanOut(hooks, func(h RunHooks) func(context.Context, *ProgressEvent) { return h.OnBranchTaken }),
		OnCancelled:    fanOut(hooks, func(h RunHooks) func(context.Context, *ProgressEvent) { return h.OnCancelled }),
	}
}

func fanOut(hooks []RunHooks, pick func(RunHooks) func(context.Context, *ProgressEvent)) func(context.Context, *ProgressEvent) {
	return func(ctx context.Context, ev *ProgressEvent) {
		for _, h := range hooks {
			if fn := pick(h); fn != nil {
				fn(ctx, ev)
			}
		}
	}
}
