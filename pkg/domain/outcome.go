package domain

// RunStatus is the state-machine position of a run.
// Running transitions into exactly one of the three terminal states.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSuccess   RunStatus = "success"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// NodeResult is one completed node in traversal order.
type NodeResult struct {
	NodeID   string     `json:"node_id"`
	NodeType string     `json:"node_type"`
	Output   NodeOutput `json:"output,omitempty"`
}

// RunOutcome is the terminal result of a run. Results holds the per-node
// outputs in traversal order; on failure or cancellation it contains the
// nodes that completed before the run stopped.
type RunOutcome struct {
	RunID   string       `json:"run_id"`
	Status  RunStatus    `json:"status"`
	Results []NodeResult `json:"results"`

	// FinalContext is meaningful on success; on failure it reflects the
	// context at the point the run aborted.
	FinalContext ExecutionContext `json:"-"`

	// Err, FailedNodeID and FailedNodeType are set when Status is StatusFailed.
	Err            *ParsedError `json:"error,omitempty"`
	FailedNodeID   string       `json:"failed_node_id,omitempty"`
	FailedNodeType string       `json:"failed_node_type,omitempty"`
}
