package runtime

import (
	"fmt"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// ValidateWorkflow exposes the pre-traversal structural checks to the facade
// and the CLI's validate command.
func ValidateWorkflow(wf *domain.Workflow) error {
	if _, perr := validateWorkflow(wf); perr != nil {
		return perr
	}
	return nil
}

// validateWorkflow performs the structural checks that must pass before any
// node is dispatched: exactly one unconfigured start node, and no edge
// referencing a node that does not exist. Returns the start node's ID.
func validateWorkflow(wf *domain.Workflow) (string, *domain.ParsedError) {
	nodes := make(map[string]bool, len(wf.Nodes))
	var startID string
	starts := 0

	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		if nodes[n.ID] {
			return "", structural(fmt.Sprintf("duplicate node id %q", n.ID))
		}
		nodes[n.ID] = true

		if n.Type == domain.NodeTypeStart {
			starts++
			startID = n.ID
			if len(n.Config) > 0 {
				return "", structural(fmt.Sprintf("start node %q must not have configuration", n.ID))
			}
		}
	}

	if starts == 0 {
		return "", structural("workflow has no start node")
	}
	if starts > 1 {
		return "", structural(fmt.Sprintf("workflow has %d start nodes, expected exactly one", starts))
	}

	for _, e := range wf.Edges {
		if !nodes[e.Source] {
			return "", structural(fmt.Sprintf("edge %s references missing source node %q", e.ID, e.Source))
		}
		if !nodes[e.Target] {
			return "", structural(fmt.Sprintf("edge %s references missing target node %q", e.ID, e.Target))
		}
	}

	return startID, nil
}

func structural(detail string) *domain.ParsedError {
	return &domain.ParsedError{
		Category:  domain.ErrorConfig,
		Retryable: false,
		Message:   "This workflow's structure is invalid and cannot be executed.",
		Detail:    detail,
	}
}
