package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects workflow metrics.
//
// Metrics (namespace "reviewgraph"):
//   - step_latency_ms{node_id,status}: step duration; status is success, error or timeout
//   - runs_total{status}: finished runs; status is completed, failed, runaway or cancelled
//   - steps_per_run: executed steps per finished run
//   - inflight_runs: runs currently executing
//   - collaborator_calls_total{collaborator,outcome}: oracle and tool calls
//
// Labels never carry run IDs, so cardinality stays bounded for long-lived
// processes.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	engine, _ := graph.New(reducer, emitter, graph.WithMetrics(metrics))
type PrometheusMetrics struct {
	stepLatency       *prometheus.HistogramVec
	runs              *prometheus.CounterVec
	stepsPerRun       prometheus.Histogram
	inflightRuns      prometheus.Gauge
	collaboratorCalls *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics registers all collectors with registry.
// A nil registry means prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		enabled: true,
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reviewgraph",
			Name:      "step_latency_ms",
			Help:      "Step duration in milliseconds",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 15000, 60000, 180000},
		}, []string{"node_id", "status"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewgraph",
			Name:      "runs_total",
			Help:      "Finished workflow runs by outcome",
		}, []string{"status"}),
		stepsPerRun: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reviewgraph",
			Name:      "steps_per_run",
			Help:      "Executed steps per finished run",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 12, 16},
		}),
		inflightRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "reviewgraph",
			Name:      "inflight_runs",
			Help:      "Workflow runs currently executing",
		}),
		collaboratorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewgraph",
			Name:      "collaborator_calls_total",
			Help:      "Calls to external collaborators by outcome",
		}, []string{"collaborator", "outcome"}),
	}
}

func (pm *PrometheusMetrics) isEnabled() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// RecordStepLatency observes one step.
func (pm *PrometheusMetrics) RecordStepLatency(nodeID string, latency time.Duration, status string) {
	if !pm.isEnabled() {
		return
	}
	pm.stepLatency.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

// RunStarted increments the in-flight gauge.
func (pm *PrometheusMetrics) RunStarted() {
	if !pm.isEnabled() {
		return
	}
	pm.inflightRuns.Inc()
}

// RunFinished decrements the in-flight gauge and records the outcome.
func (pm *PrometheusMetrics) RunFinished(status string, steps int) {
	if !pm.isEnabled() {
		return
	}
	pm.inflightRuns.Dec()
	pm.runs.WithLabelValues(status).Inc()
	pm.stepsPerRun.Observe(float64(steps))
}

// RecordCollaboratorCall counts one oracle or tool call.
// Outcome is success, error or timeout.
func (pm *PrometheusMetrics) RecordCollaboratorCall(collaborator, outcome string) {
	if !pm.isEnabled() {
		return
	}
	pm.collaboratorCalls.WithLabelValues(collaborator, outcome).Inc()
}

// Disable stops metric collection without unregistering collectors.
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable resumes metric collection.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
