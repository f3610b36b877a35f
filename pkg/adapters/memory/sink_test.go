package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitzies/pulseflow/pkg/adapters/memory"
	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

func TestEventLog_Contract(t *testing.T) {
	ports.RunEventLogContract(t, memory.NewEventLog())
}

func TestEventLog_IsolatesRuns(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog()

	require.NoError(t, log.Append(ctx, "r1", domain.ProgressEvent{Type: domain.EventNodeStart, RunID: "r1"}))
	require.NoError(t, log.Append(ctx, "r2", domain.ProgressEvent{Type: domain.EventNodeError, RunID: "r2"}))

	got, err := log.Events(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventNodeStart, got[0].Type)
}

func TestStore_GetUnknown(t *testing.T) {
	store := memory.NewStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Put(&domain.Workflow{ID: "wf1", Wallet: wallet})

	wf, err := store.Get(ctx, "wf1")
	require.NoError(t, err)
	assert.Equal(t, "wf1", wf.ID)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "wf1")
}
