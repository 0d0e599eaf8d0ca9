// Package metrics provides Prometheus metrics for the supervisor and its
// health probes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	supervisorState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "previewd",
		Subsystem: "supervisor",
		Name:      "state",
		Help:      "Current supervisor state (1 for the active state, 0 otherwise)",
	}, []string{"state"})

	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "previewd",
		Subsystem: "supervisor",
		Name:      "state_transitions_total",
		Help:      "Total supervisor state transitions",
	}, []string{"from", "to"})

	startFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "previewd",
		Subsystem: "supervisor",
		Name:      "start_failures_total",
		Help:      "Total failed start attempts by error classification",
	}, []string{"reason"})

	probeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "previewd",
		Subsystem: "probe",
		Name:      "duration_seconds",
		Help:      "Health probe round-trip duration",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "previewd",
		Subsystem: "probe",
		Name:      "total",
		Help:      "Total health probes by outcome",
	}, []string{"outcome"})
)

// knownStates keeps the state gauge exhaustive so dashboards see explicit
// zeros instead of absent series.
var knownStates = []string{"stopped", "starting", "running", "error"}

// SetSupervisorState marks the active state on the gauge.
func SetSupervisorState(state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		supervisorState.WithLabelValues(s).Set(v)
	}
}

// RecordStateTransition counts one state transition.
func RecordStateTransition(from, to string) {
	stateTransitions.WithLabelValues(from, to).Inc()
}

// RecordStartFailure counts a failed start attempt by reason.
func RecordStartFailure(reason string) {
	startFailures.WithLabelValues(reason).Inc()
}

// RecordProbe observes one health probe.
func RecordProbe(duration time.Duration, healthy bool) {
	probeDuration.Observe(duration.Seconds())
	outcome := "unhealthy"
	if healthy {
		outcome = "healthy"
	}
	probesTotal.WithLabelValues(outcome).Inc()
}
