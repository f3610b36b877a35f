package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// RunEventLogContract runs a suite of tests to verify that an EventLog
// implementation adheres to the defined interface contract.
func RunEventLogContract(t *testing.T, log EventLog) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Append and Read Back In Order", func(t *testing.T) {
		events := []domain.ProgressEvent{
			{Type: domain.EventNodeStart, RunID: runID, NodeID: "a", NodeType: domain.NodeTypeBalanceCheck, Timestamp: time.Now().UTC()},
			{Type: domain.EventNodeComplete, RunID: runID, NodeID: "a", NodeType: domain.NodeTypeBalanceCheck, Timestamp: time.Now().UTC()},
			{Type: domain.EventBranchTaken, RunID: runID, NodeID: "b", NodeType: domain.NodeTypeCondition, Branch: domain.BranchTrue, Timestamp: time.Now().UTC()},
		}
		for _, ev := range events {
			require.NoError(t, log.Append(ctx, runID, ev))
		}

		got, err := log.Events(ctx, runID)
		require.NoError(t, err)
		require.Len(t, got, len(events))
		for i, ev := range events {
			assert.Equal(t, ev.Type, got[i].Type)
			assert.Equal(t, ev.NodeID, got[i].NodeID)
		}
		assert.Equal(t, domain.BranchTrue, got[2].Branch)
	})

	t.Run("Unknown Run Is Empty", func(t *testing.T) {
		got, err := log.Events(ctx, "never-seen-"+runID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
