package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zen-systems/taskgate/pkg/delegate"
	"github.com/zen-systems/taskgate/pkg/executor"
	"github.com/zen-systems/taskgate/pkg/router"
)

// Metrics records dispatch activity in its own Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	Executions        *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	ExecutionTokens   *prometheus.HistogramVec
	Decisions         *prometheus.CounterVec
	Attempts          *prometheus.CounterVec
	Fallbacks         prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_executions_total",
				Help: "Total task executions by executor, task type and outcome",
			},
			[]string{"executor", "task_type", "success"},
		),
		ExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskgate_execution_duration_seconds",
				Help:    "Wall-clock duration of task executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"executor", "task_type"},
		),
		ExecutionTokens: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskgate_execution_tokens",
				Help:    "Tokens reported or estimated per execution",
				Buckets: prometheus.ExponentialBuckets(16, 2, 10),
			},
			[]string{"executor", "task_type"},
		),
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_routing_decisions_total",
				Help: "Routing decisions by lane",
			},
			[]string{"lane"},
		),
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_delegation_attempts_total",
				Help: "Remote delegation attempts by agent type and outcome",
			},
			[]string{"agent_type", "outcome"},
		),
		Fallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "taskgate_fallbacks_total",
				Help: "Remote failures that fell back to local execution",
			},
		),
	}
}

// RecordExecution implements executor.Recorder. Executions without token
// telemetry are not observed in the token histogram.
func (m *Metrics) RecordExecution(r executor.ExecutionRecord) {
	kind := string(r.TaskType)
	if kind == "" {
		kind = "unknown"
	}
	m.Executions.WithLabelValues(r.Executor, kind, strconv.FormatBool(r.Success)).Inc()
	m.ExecutionDuration.WithLabelValues(r.Executor, kind).Observe(r.Duration.Seconds())
	if r.Success && r.Tokens > 0 {
		m.ExecutionTokens.WithLabelValues(r.Executor, kind).Observe(float64(r.Tokens))
	}
}

// RecordDecision counts one routing decision.
func (m *Metrics) RecordDecision(d *router.Decision) {
	if d == nil {
		return
	}
	m.Decisions.WithLabelValues(string(d.Lane)).Inc()
}

// ObserveAttempt counts one delegation attempt. It matches delegate.Policy.OnAttempt.
func (m *Metrics) ObserveAttempt(a delegate.Attempt) {
	outcome := "success"
	switch {
	case a.Err == nil:
	case a.Transient:
		outcome = "transient_error"
	default:
		outcome = "error"
	}
	m.Attempts.WithLabelValues(string(a.AgentType), outcome).Inc()
}

// RecordFallback counts one remote-to-local fallback.
func (m *Metrics) RecordFallback() {
	m.Fallbacks.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
