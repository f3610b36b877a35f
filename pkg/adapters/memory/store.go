package memory

import (
	"context"
	"sync"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// Store implements ports.WorkflowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Workflow
	mu   sync.RWMutex
}

// NewStore creates a new in-memory workflow store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Workflow),
	}
}

// Put registers a workflow definition. The engine never writes definitions;
// this is host-side seeding (tests, CLI, examples).
func (s *Store) Put(wf *domain.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[wf.ID] = wf
}

// Get retrieves a workflow definition by ID.
func (s *Store) Get(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.data[workflowID]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return wf, nil
}

// List returns the registered workflow IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
