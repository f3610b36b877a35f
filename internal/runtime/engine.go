// Package runtime contains the workflow traversal core: the engine that walks
// the node graph, the per-node dispatcher, the amount resolver, and the error
// classifier. Hosts embed it through the root pulseflow package.
package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

// Engine walks a workflow graph and executes it node by node, strictly
// sequentially, against the chain adapter. One Engine value may serve many
// runs; each run carries its own context value and shares nothing with
// concurrent runs.
type Engine struct {
	chain    ports.ChainAdapter
	sink     ports.EventSink
	hooks    domain.RunHooks
	logger   *slog.Logger
	dispatch *dispatcher
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.RunHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithSink sets the execution-log sink receiving progress events.
func WithSink(sink ports.EventSink) EngineOption {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithSleep replaces the delay-node sleeper. Tests use this to avoid real
// waiting.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) {
		e.dispatch.sleep = sleep
	}
}

// NewEngine creates a traversal engine bound to a chain adapter.
func NewEngine(chain ports.ChainAdapter, opts ...EngineOption) *Engine {
	e := &Engine{
		chain:    chain,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		dispatch: newDispatcher(chain),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the workflow to a terminal state. Structural errors fail the
// run before any node is dispatched; the first dispatch failure aborts the
// whole run with a classified error; cancellation is polled before each node
// and is a distinct terminal state, not an error.
func (e *Engine) Run(ctx context.Context, runID string, wf *domain.Workflow) domain.RunOutcome {
	logger := e.logger.With("run", runID, "workflow", wf.ID)

	startID, perr := validateWorkflow(wf)
	if perr != nil {
		logger.Warn("structural validation failed", "err", perr.Detail)
		return domain.RunOutcome{RunID: runID, Status: domain.StatusFailed, Err: perr}
	}

	// Adjacency: source node id -> outgoing edges in definition order.
	adjacency := make(map[string][]domain.Edge, len(wf.Nodes))
	for _, edge := range wf.Edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge)
	}

	ectx := domain.NewExecutionContext()
	var results []domain.NodeResult

	// The loop node models a whole-chain restart, not a graph cycle: the
	// traversal itself stays acyclic and this outer counter reruns it.
	iteration := 0
	maxIterations := 1

	for iteration < maxIterations {
		iteration++
		if iteration > 1 {
			ectx = ectx.NextIteration()
		}

		frontier := make([]string, 0, len(adjacency[startID]))
		for _, edge := range adjacency[startID] {
			frontier = append(frontier, edge.Target)
		}
		executed := make(map[string]bool)

		for len(frontier) > 0 {
			nodeID := frontier[0]
			frontier = frontier[1:]

			if executed[nodeID] {
				continue
			}
			node := wf.FindNode(nodeID)
			if node == nil {
				// Dangling targets are rejected up front, but a definition
				// can still route to the start node; skip quietly.
				continue
			}
			executed[nodeID] = true

			if cancelled, err := e.runCancelled(ctx, runID); err != nil {
				logger.Warn("cancellation check failed", "node", nodeID, "err", err)
			} else if cancelled {
				e.emit(ctx, &domain.ProgressEvent{
					Type: domain.EventCancelled, Timestamp: time.Now().UTC(),
					RunID: runID, NodeID: nodeID, NodeType: node.Type, Iteration: ectx.CurrentIteration,
				})
				logger.Info("run cancelled", "node", nodeID)
				return domain.RunOutcome{RunID: runID, Status: domain.StatusCancelled, Results: results, FinalContext: ectx}
			}

			e.emit(ctx, &domain.ProgressEvent{
				Type: domain.EventNodeStart, Timestamp: time.Now().UTC(),
				RunID: runID, NodeID: node.ID, NodeType: node.Type, Iteration: ectx.CurrentIteration,
			})

			output, nextCtx, err := e.dispatch.execute(ctx, node, wf.Wallet, ectx)
			if err != nil {
				parsed := classify(err)
				e.emit(ctx, &domain.ProgressEvent{
					Type: domain.EventNodeError, Timestamp: time.Now().UTC(),
					RunID: runID, NodeID: node.ID, NodeType: node.Type, Iteration: ectx.CurrentIteration,
					Error: parsed,
				})
				logger.Warn("node failed", "node", node.ID, "type", node.Type, "category", parsed.Category, "err", parsed.Detail)
				return domain.RunOutcome{
					RunID: runID, Status: domain.StatusFailed, Results: results, FinalContext: ectx,
					Err: parsed, FailedNodeID: node.ID, FailedNodeType: node.Type,
				}
			}
			ectx = nextCtx

			e.emit(ctx, &domain.ProgressEvent{
				Type: domain.EventNodeComplete, Timestamp: time.Now().UTC(),
				RunID: runID, NodeID: node.ID, NodeType: node.Type, Iteration: ectx.CurrentIteration,
				Output: output,
			})
			results = append(results, domain.NodeResult{NodeID: node.ID, NodeType: node.Type, Output: output})

			switch node.Type {
			case domain.NodeTypeCondition:
				branch, _ := output["branch"].(string)
				e.emit(ctx, &domain.ProgressEvent{
					Type: domain.EventBranchTaken, Timestamp: time.Now().UTC(),
					RunID: runID, NodeID: node.ID, NodeType: node.Type, Iteration: ectx.CurrentIteration,
					Branch: branch,
				})
				// Follow only the edge matching the selected branch. If no
				// such edge exists, this path simply stops; intentional, not
				// an error.
				for _, edge := range adjacency[node.ID] {
					if edge.SourceHandle == branch {
						frontier = append(frontier, edge.Target)
					}
				}

			case domain.NodeTypeLoop:
				if n, ok := output["iterations"].(int); ok && n > maxIterations {
					maxIterations = n
				}
				for _, edge := range adjacency[node.ID] {
					frontier = append(frontier, edge.Target)
				}

			default:
				for _, edge := range adjacency[node.ID] {
					frontier = append(frontier, edge.Target)
				}
			}
		}
	}

	logger.Info("run complete", "nodes", len(results), "iterations", iteration)
	return domain.RunOutcome{RunID: runID, Status: domain.StatusSuccess, Results: results, FinalContext: ectx}
}

// runCancelled polls the host's cancellation signal. A done context counts as
// cancellation too, so callers can abandon a run without the adapter's help.
func (e *Engine) runCancelled(ctx context.Context, runID string) (bool, error) {
	select {
	case <-ctx.Done():
		return true, nil
	default:
	}
	return e.chain.RunCancelled(ctx, runID)
}

// emit forwards the event to the sink and hooks. Sink failures are logged,
// never fatal: the run does not depend on its own audit trail.
func (e *Engine) emit(ctx context.Context, ev *domain.ProgressEvent) {
	if e.sink != nil {
		if err := e.sink.Append(ctx, ev.RunID, *ev); err != nil {
			e.logger.Warn("event sink append failed", "run", ev.RunID, "event", ev.Type, "err", err)
		}
	}

	switch ev.Type {
	case domain.EventNodeStart:
		if e.hooks.OnNodeStart != nil {
			e.hooks.OnNodeStart(ctx, ev)
		}
	case domain.EventNodeComplete:
		if e.hooks.OnNodeComplete != nil {
			e.hooks.OnNodeComplete(ctx, ev)
		}
	case domain.EventNodeError:
		if e.hooks.OnNodeError != nil {
			e.hooks.OnNodeError(ctx, ev)
		}
	case domain.EventBranchTaken:
		if e.hooks.OnBranchTaken != nil {
			e.hooks.OnBranchTaken(ctx, ev)
		}
	case domain.EventCancelled:
		if e.hooks.OnCancelled != nil {
			e.hooks.OnCancelled(ctx, ev)
		}
	}
}
