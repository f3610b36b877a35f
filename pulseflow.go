package pulseflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fitzies/pulseflow/internal/logging"
	"github.com/fitzies/pulseflow/internal/runtime"
	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

// DefaultLockTTL is the wallet lock expiry when no option overrides it. It is
// the upper bound a crashed host can keep a workflow's wallet unavailable.
const DefaultLockTTL = 10 * time.Minute

// Engine is the high-level entry point for the Pulseflow library.
// It wraps the internal traversal runtime and provides a simplified API for
// hosts: load a workflow from the store, lock its wallet, execute, unlock.
type Engine struct {
	chain   ports.ChainAdapter
	store   ports.WorkflowStore
	sink    ports.EventSink
	locker  ports.WalletLocker
	hooks   domain.RunHooks
	logger  *slog.Logger
	lockTTL time.Duration

	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithHooks registers observability callbacks fired as runs advance.
func WithHooks(hooks domain.RunHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithSink sets the execution-log sink receiving progress events.
func WithSink(sink ports.EventSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithLocker enables wallet serialization across concurrent runs of the
// same workflow.
func WithLocker(locker ports.WalletLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL overrides the wallet lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSleep replaces the delay-node sleeper (used by tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithSleep(sleep))
	}
}

// New initializes a new Pulseflow Engine bound to a chain adapter and a
// workflow store.
func New(chain ports.ChainAdapter, store ports.WorkflowStore, opts ...Option) (*Engine, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain adapter is required")
	}
	if store == nil {
		return nil, fmt.Errorf("workflow store is required")
	}

	eng := &Engine{
		chain:   chain,
		store:   store,
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	return eng, nil
}

// Run loads the workflow, serializes its wallet if a locker is configured,
// and executes the graph to a terminal state. The returned error covers host
// failures (unknown workflow, lock acquisition); execution failures are
// reported inside the RunOutcome, classified and attributed to the failing
// node.
func (e *Engine) Run(ctx context.Context, workflowID string) (domain.RunOutcome, error) {
	return e.RunAs(ctx, workflowID, uuid.NewString())
}

// RunAs is Run with a caller-chosen run ID, for hosts that need to hand the
// ID out (for event streaming or cancellation) before the run finishes.
func (e *Engine) RunAs(ctx context.Context, workflowID, runID string) (domain.RunOutcome, error) {
	wf, err := e.store.Get(ctx, workflowID)
	if err != nil {
		return domain.RunOutcome{}, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}
	return e.runGraph(ctx, wf, runID)
}

// RunGraph executes an already-loaded workflow definition.
func (e *Engine) RunGraph(ctx context.Context, wf *domain.Workflow) (domain.RunOutcome, error) {
	return e.runGraph(ctx, wf, uuid.NewString())
}

func (e *Engine) runGraph(ctx context.Context, wf *domain.Workflow, runID string) (domain.RunOutcome, error) {
	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, wf.ID, e.lockTTL)
		if err != nil {
			return domain.RunOutcome{}, fmt.Errorf("failed to lock wallet for workflow %s: %w", wf.ID, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release wallet lock", "workflow", wf.ID, "err", err)
			}
		}()
	}

	opts := []runtime.EngineOption{
		runtime.WithLogger(e.logger),
		runtime.WithHooks(e.hooks),
		runtime.WithSink(e.sink),
	}
	opts = append(opts, e.runtimeOpts...)

	rt := runtime.NewEngine(e.chain, opts...)
	return rt.Run(ctx, runID, wf), nil
}

// Validate runs the pre-traversal structural checks against a stored
// workflow without dispatching any node.
func (e *Engine) Validate(ctx context.Context, workflowID string) error {
	wf, err := e.store.Get(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}
	return ValidateGraph(wf)
}

// ValidateGraph runs the structural checks on a workflow definition: exactly
// one unconfigured start node and no dangling edges.
func ValidateGraph(wf *domain.Workflow) error {
	return runtime.ValidateWorkflow(wf)
}
