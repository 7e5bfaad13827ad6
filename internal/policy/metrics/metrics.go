package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for policy matching and evaluation.
type Metrics struct {
	Evaluations *prometheus.CounterVec
	FailOpens   prometheus.Counter
}

// New creates a new Metrics instance with all policy module metrics registered.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pactum_policy_evaluations_total",
			Help: "Rule evaluations by outcome (violates, compliant, indeterminate)",
		}, []string{"result"}),
		FailOpens: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pactum_policy_fail_opens_total",
			Help: "Indeterminate evaluator answers collapsed to compliant",
		}),
	}
}

// RecordEvaluation counts one rule evaluation outcome.
func (m *Metrics) RecordEvaluation(result string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(result).Inc()
}

// RecordFailOpen counts one fail-open collapse.
func (m *Metrics) RecordFailOpen() {
	if m == nil {
		return
	}
	m.FailOpens.Inc()
}
