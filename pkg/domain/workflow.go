package domain

// Node type constants define the control flow and operation behavior.
const (
	// NodeTypeStart is the entry point. Exactly one per workflow, no configuration.
	NodeTypeStart = "start"

	// NodeTypeSwap exchanges one token for another through a pool.
	NodeTypeSwap = "swap"
	// NodeTypeLiquidityAdd deposits a token pair into a pool.
	NodeTypeLiquidityAdd = "liquidity_add"
	// NodeTypeLiquidityRemove withdraws a liquidity position from a pool.
	NodeTypeLiquidityRemove = "liquidity_remove"
	// NodeTypeTransfer sends tokens to an external address (pure side-effect).
	NodeTypeTransfer = "transfer"
	// NodeTypeBalanceCheck reads a wallet balance (query, no transaction).
	NodeTypeBalanceCheck = "balance_check"

	// NodeTypeCondition evaluates a comparison and selects a "true"/"false" branch.
	NodeTypeCondition = "condition"
	// NodeTypeLoop declares a bounded whole-chain repeat count.
	NodeTypeLoop = "loop"
	// NodeTypeDelay suspends the run for a bounded duration.
	NodeTypeDelay = "delay"
	// NodeTypeGasGuard fails the run if the previous node's gas price exceeded a ceiling.
	NodeTypeGasGuard = "gas_guard"
	// NodeTypeSetVariable binds a resolved amount to a named context variable.
	NodeTypeSetVariable = "set_variable"
)

// Edge handle labels used by condition nodes to disambiguate outputs.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// Position is editor-placement metadata. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node represents one step of a workflow.
// Config holds the raw, editor-authored configuration object; the runtime
// decodes it into a typed per-node-type structure before dispatch.
type Node struct {
	ID       string         `json:"id" yaml:"id"`
	Type     string         `json:"type" yaml:"type"`
	Position Position       `json:"position,omitempty" yaml:"position,omitempty"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Edge is a directed connection between two nodes. SourceHandle selects among
// multiple outputs of the source node (a condition node's "true"/"false").
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Workflow is a user-authored graph executed against a dedicated wallet.
// It is created by the external editor and read-only to the engine.
type Workflow struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Wallet string `json:"wallet" yaml:"wallet"`
	Nodes  []Node `json:"nodes" yaml:"nodes"`
	Edges  []Edge `json:"edges" yaml:"edges"`
}

// FindNode returns the node with the given ID, or nil if it does not exist.
func (w *Workflow) FindNode(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}
