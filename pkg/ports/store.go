package ports

import (
	"context"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// WorkflowStore provides read access to workflow definitions. The engine
// never writes definitions; they are authored by the external editor.
// Get returns domain.ErrWorkflowNotFound for unknown IDs.
type WorkflowStore interface {
	Get(ctx context.Context, workflowID string) (*domain.Workflow, error)
}
