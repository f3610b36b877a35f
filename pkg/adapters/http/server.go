// Package http exposes workflow execution over a REST surface: launch a run,
// poll its status, read its progress events, cancel it. State lives in the
// injected collaborators; the server itself only tracks in-flight runs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitzies/pulseflow/internal/logging"
	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

// Engine is the subset of the pulseflow facade the server drives.
type Engine interface {
	RunAs(ctx context.Context, workflowID, runID string) (domain.RunOutcome, error)
	Validate(ctx context.Context, workflowID string) error
}

// Canceller marks runs cancelled; the engine observes the flag before each
// node dispatch. Implemented by the memory chain and the redis registry.
type Canceller interface {
	Cancel(ctx context.Context, runID string) error
}

// Server handles the REST API. Runs execute asynchronously; the response to
// a launch carries the run ID used by all other endpoints.
type Server struct {
	engine    Engine
	canceller Canceller
	events    ports.EventLog
	logger    *slog.Logger

	mu   sync.RWMutex
	runs map[string]*runState
}

type runState struct {
	WorkflowID string             `json:"workflow_id"`
	Status     domain.RunStatus   `json:"status"`
	Outcome    *domain.RunOutcome `json:"outcome,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// NewServer creates the server. events may be nil, in which case the events
// endpoint reports 404.
func NewServer(engine Engine, canceller Canceller, events ports.EventLog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		engine:    engine,
		canceller: canceller,
		events:    events,
		logger:    logger,
		runs:      make(map[string]*runState),
	}
}

// Handler returns the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/workflows/{workflowID}/runs", s.launchRun)
	r.Post("/workflows/{workflowID}/validate", s.validate)
	r.Get("/runs/{runID}", s.runStatus)
	r.Get("/runs/{runID}/events", s.runEvents)
	r.Post("/runs/{runID}/cancel", s.cancelRun)
	return r
}

func (s *Server) launchRun(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")
	runID := uuid.NewString()

	s.mu.Lock()
	s.runs[runID] = &runState{WorkflowID: workflowID, Status: domain.StatusRunning}
	s.mu.Unlock()

	// The run outlives the launch request on purpose.
	go func() {
		outcome, err := s.engine.RunAs(context.Background(), workflowID, runID)

		s.mu.Lock()
		defer s.mu.Unlock()
		state := s.runs[runID]
		if err != nil {
			state.Status = domain.StatusFailed
			state.Error = err.Error()
			s.logger.Warn("run launch failed", "run", runID, "workflow", workflowID, "err", err)
			return
		}
		state.Status = outcome.Status
		state.Outcome = &outcome
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")
	if err := s.engine.Validate(r.Context(), workflowID); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

func (s *Server) runStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	snapshot, err := s.lookupRun(runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// lookupRun snapshots a tracked run's state under the read lock.
func (s *Server) lookupRun(runID string) (runState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.runs[runID]
	if !ok {
		return runState{}, domain.ErrRunNotFound
	}
	return *state, nil
}

func (s *Server) runEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		http.Error(w, "event log not configured", http.StatusNotFound)
		return
	}
	runID := chi.URLParam(r, "runID")

	events, err := s.events.Events(r.Context(), runID)
	if err != nil {
		s.logger.Error("failed to read events", "run", runID, "err", err)
		http.Error(w, "failed to read events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	if s.canceller == nil {
		http.Error(w, "cancellation not configured", http.StatusNotFound)
		return
	}
	runID := chi.URLParam(r, "runID")

	if err := s.canceller.Cancel(r.Context(), runID); err != nil {
		s.logger.Error("failed to cancel run", "run", runID, "err", err)
		http.Error(w, "failed to cancel run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}
