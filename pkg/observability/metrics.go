package observability

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// Metrics holds the Prometheus collectors for workflow execution.
type Metrics struct {
	nodeExecutions *prometheus.CounterVec
	nodeFailures   *prometheus.CounterVec
	branchesTaken  *prometheus.CounterVec
	runsCancelled  prometheus.Counter
	nodeDuration   *prometheus.HistogramVec

	mu     sync.Mutex
	starts map[string]time.Time // runID/nodeID -> dispatch start
}

// NewMetrics creates and registers the collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		nodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulseflow_node_executions_total",
				Help: "Completed node executions by node type.",
			},
			[]string{"node_type"},
		),
		nodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulseflow_node_failures_total",
				Help: "Failed node executions by node type and error category.",
			},
			[]string{"node_type", "category"},
		),
		branchesTaken: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulseflow_branches_taken_total",
				Help: "Condition branch selections.",
			},
			[]string{"branch"},
		),
		runsCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pulseflow_runs_cancelled_total",
				Help: "Runs stopped by host cancellation.",
			},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulseflow_node_duration_seconds",
				Help:    "Wall time of node dispatch by node type.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"node_type"},
		),
		starts: make(map[string]time.Time),
	}

	reg.MustRegister(m.nodeExecutions, m.nodeFailures, m.branchesTaken, m.runsCancelled, m.nodeDuration)
	return m
}

// Hooks returns the engine callbacks that feed these collectors.
func (m *Metrics) Hooks() domain.RunHooks {
	return domain.RunHooks{
		OnNodeStart: func(_ context.Context, ev *domain.ProgressEvent) {
			m.mu.Lock()
			m.starts[ev.RunID+"/"+ev.NodeID] = time.Now()
			m.mu.Unlock()
		},
		OnNodeComplete: func(_ context.Context, ev *domain.ProgressEvent) {
			m.nodeExecutions.WithLabelValues(ev.NodeType).Inc()
			m.observeDuration(ev)
		},
		OnNodeError: func(_ context.Context, ev *domain.ProgressEvent) {
			category := string(domain.ErrorUnknown)
			if ev.Error != nil {
				category = string(ev.Error.Category)
			}
			m.nodeFailures.WithLabelValues(ev.NodeType, category).Inc()
			m.observeDuration(ev)
		},
		OnBranchTaken: func(_ context.Context, ev *domain.ProgressEvent) {
			m.branchesTaken.WithLabelValues(ev.Branch).Inc()
		},
		OnCancelled: func(_ context.Context, ev *domain.ProgressEvent) {
			m.runsCancelled.Inc()
		},
	}
}

func (m *Metrics) observeDuration(ev *domain.ProgressEvent) {
	key := ev.RunID + "/" + ev.NodeID
	m.mu.Lock()
	start, ok := m.starts[key]
	delete(m.starts, key)
	m.mu.Unlock()
	if ok {
		m.nodeDuration.WithLabelValues(ev.NodeType).Observe(time.Since(start).Seconds())
	}
}
