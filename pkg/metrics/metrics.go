// Package metrics provides Prometheus-based metrics recording for workflow
// orchestration.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"irabuilder/pkg/proto"
)

// Recorder records workflow-level metrics. A nil Recorder is a no-op, so
// callers that run without metrics can pass nil.
type Recorder struct {
	transitionsTotal *prometheus.CounterVec
	coderAttempts    *prometheus.CounterVec
	refinements      prometheus.Counter
	agentCalls       *prometheus.CounterVec
	agentCallTime    *prometheus.HistogramVec
	workflowDuration prometheus.Histogram
}

// NewRecorder creates a recorder registered on the default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		transitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_transitions_total",
				Help: "Total number of workflow phase transitions",
			},
			[]string{"from_phase", "to_phase"},
		),
		coderAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coder_attempts_total",
				Help: "Total number of code generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		refinements: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "output_refinements_total",
				Help: "Total number of output refinement requests",
			},
		),
		agentCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_calls_total",
				Help: "Total number of LLM agent calls by agent and status",
			},
			[]string{"agent", "status"},
		),
		agentCallTime: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_call_duration_seconds",
				Help:    "Duration of LLM agent calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
		workflowDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workflow_duration_seconds",
				Help:    "Wall-clock duration of completed workflows in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
	}
}

// ObserveTransition records one phase transition.
func (r *Recorder) ObserveTransition(from, to proto.Phase) {
	if r == nil {
		return
	}
	r.transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

// ObserveCoderAttempt records one code generation attempt.
func (r *Recorder) ObserveCoderAttempt(succeeded bool) {
	if r == nil {
		return
	}
	outcome := "failure"
	if succeeded {
		outcome = "success"
	}
	r.coderAttempts.WithLabelValues(outcome).Inc()
}

// IncRefinement records one output refinement request.
func (r *Recorder) IncRefinement() {
	if r == nil {
		return
	}
	r.refinements.Inc()
}

// ObserveAgentCall records one LLM call.
func (r *Recorder) ObserveAgentCall(agent string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.agentCalls.WithLabelValues(agent, status).Inc()
	r.agentCallTime.WithLabelValues(agent).Observe(duration.Seconds())
}

// ObserveWorkflowDuration records the total runtime of a finished workflow.
func (r *Recorder) ObserveWorkflowDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.workflowDuration.Observe(d.Seconds())
}
