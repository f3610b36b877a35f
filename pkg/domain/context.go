package domain

import "math/big"

// NodeOutput is the normalized output record of a completed node.
// Amount-valued fields hold *big.Int; a condition node's "branch" field holds
// a string; contexts reloaded from JSON may carry numbers as strings or
// float64, which the resolver tolerates.
type NodeOutput map[string]any

// ExecutionContext is the snapshot of a run threaded through traversal.
// It follows an immutable-update discipline: every With* method returns a new
// value and leaves the receiver untouched, so partial contexts from an
// abandoned branch can never leak forward.
type ExecutionContext struct {
	NodeOutputs      map[string]NodeOutput
	PreviousNodeID   string
	PreviousNodeType string
	Variables        map[string]*big.Int
	CurrentIteration int
}

// NewExecutionContext creates the clean context for a fresh run.
func NewExecutionContext() ExecutionContext {
	return ExecutionContext{
		NodeOutputs: make(map[string]NodeOutput),
		Variables:   make(map[string]*big.Int),
	}
}

// WithOutput records a completed node's output and marks it as the previous
// node, returning the updated context.
func (c ExecutionContext) WithOutput(nodeID, nodeType string, output NodeOutput) ExecutionContext {
	next := c.clone()
	next.NodeOutputs[nodeID] = output
	next.PreviousNodeID = nodeID
	next.PreviousNodeType = nodeType
	return next
}

// WithVariable binds a named variable, returning the updated context.
func (c ExecutionContext) WithVariable(name string, value *big.Int) ExecutionContext {
	next := c.clone()
	next.Variables[name] = value
	return next
}

// NextIteration prepares the context for a loop restart: outputs and the
// previous-node pointer are cleared, variables survive, and the iteration
// counter advances.
func (c ExecutionContext) NextIteration() ExecutionContext {
	next := c.clone()
	next.NodeOutputs = make(map[string]NodeOutput)
	next.PreviousNodeID = ""
	next.PreviousNodeType = ""
	next.CurrentIteration++
	return next
}

// PreviousOutput returns the output record of the most recently completed
// node, or nil if no node has completed yet this iteration.
func (c ExecutionContext) PreviousOutput() NodeOutput {
	if c.PreviousNodeID == "" {
		return nil
	}
	return c.NodeOutputs[c.PreviousNodeID]
}

// clone copies the context maps so the returned value can be mutated safely.
// Output records themselves are not deep-copied; they are written once on
// node completion and treated as read-only afterwards.
func (c ExecutionContext) clone() ExecutionContext {
	next := c
	next.NodeOutputs = make(map[string]NodeOutput, len(c.NodeOutputs))
	for k, v := range c.NodeOutputs {
		next.NodeOutputs[k] = v
	}
	next.Variables = make(map[string]*big.Int, len(c.Variables))
	for k, v := range c.Variables {
		next.Variables[k] = v
	}
	return next
}
