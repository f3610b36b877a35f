package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitzies/pulseflow"
	httpadapter "github.com/fitzies/pulseflow/pkg/adapters/http"
	"github.com/fitzies/pulseflow/pkg/adapters/memory"
	"github.com/fitzies/pulseflow/pkg/domain"
)

const wallet = "0x1111111111111111111111111111111111111111"

func setupServer(t *testing.T) (*httptest.Server, *memory.Chain) {
	t.Helper()

	chain := memory.NewChain()
	bal, err := domain.ParseAmount("10")
	require.NoError(t, err)
	chain.SetBalance(wallet, domain.NativeToken, bal)

	store := memory.NewStore()
	store.Put(&domain.Workflow{
		ID:     "wf-ok",
		Wallet: wallet,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "check", Type: domain.NodeTypeBalanceCheck},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "check"},
		},
	})
	store.Put(&domain.Workflow{
		ID:     "wf-broken",
		Wallet: wallet,
		Nodes:  []domain.Node{{ID: "a", Type: domain.NodeTypeBalanceCheck}},
	})

	events := memory.NewEventLog()
	engine, err := pulseflow.New(chain, store, pulseflow.WithSink(events))
	require.NoError(t, err)

	api := httpadapter.NewServer(engine, chain, events, nil)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv, chain
}

func launch(t *testing.T, srv *httptest.Server, workflowID string) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/workflows/"+workflowID+"/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["run_id"])
	return body["run_id"]
}

type statusBody struct {
	WorkflowID string           `json:"workflow_id"`
	Status     domain.RunStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
}

func pollStatus(t *testing.T, srv *httptest.Server, runID string) statusBody {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(srv.URL + "/runs/" + runID)
		require.NoError(t, err)
		var body statusBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()

		if body.Status != domain.StatusRunning {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run did not reach a terminal state in time")
	return statusBody{}
}

func TestServer_RunLifecycle(t *testing.T) {
	srv, _ := setupServer(t)

	runID := launch(t, srv, "wf-ok")
	status := pollStatus(t, srv, runID)

	assert.Equal(t, domain.StatusSuccess, status.Status)
	assert.Equal(t, "wf-ok", status.WorkflowID)

	// Events were appended to the configured log.
	resp, err := http.Get(srv.URL + "/runs/" + runID + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []domain.ProgressEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventNodeStart, events[0].Type)
}

func TestServer_UnknownWorkflowFailsRun(t *testing.T) {
	srv, _ := setupServer(t)

	runID := launch(t, srv, "missing")
	status := pollStatus(t, srv, runID)
	assert.Equal(t, domain.StatusFailed, status.Status)
	assert.NotEmpty(t, status.Error)
}

func TestServer_Validate(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Post(srv.URL+"/workflows/wf-ok/validate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/workflows/wf-broken/validate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_UnknownRunIs404(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/runs/nope")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, domain.ErrRunNotFound.Error(), strings.TrimSpace(string(body)))
}

func TestServer_Cancel(t *testing.T) {
	srv, chain := setupServer(t)

	resp, err := http.Post(srv.URL+"/runs/some-run/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	cancelled, err := chain.RunCancelled(context.Background(), "some-run")
	require.NoError(t, err)
	assert.True(t, cancelled)
}
