package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the contract lifecycle.
type Metrics struct {
	Validations       *prometheus.CounterVec
	ValidationSeconds *prometheus.HistogramVec
	Signatures        *prometheus.CounterVec
	Archives          *prometheus.CounterVec
}

// New creates a new Metrics instance with all contract module metrics registered.
func New() *Metrics {
	return &Metrics{
		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pactum_contract_validations_total",
			Help: "Validation runs by validator (ai, policy) and outcome (valid, invalid)",
		}, []string{"validator", "outcome"}),
		ValidationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pactum_contract_validation_duration_seconds",
			Help:    "Wall time of a full validation run per validator",
			Buckets: prometheus.DefBuckets,
		}, []string{"validator"}),
		Signatures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pactum_contract_signatures_total",
			Help: "Recorded signatures by document type (NDA, MAIN_CONTRACT) and actor",
		}, []string{"type", "actor"}),
		Archives: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pactum_contract_archives_total",
			Help: "Fully-signed documents archived, by document type",
		}, []string{"type"}),
	}
}

// RecordValidation counts one full validation run and its duration.
func (m *Metrics) RecordValidation(validator string, valid bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.Validations.WithLabelValues(validator, outcome).Inc()
	m.ValidationSeconds.WithLabelValues(validator).Observe(elapsed.Seconds())
}

// RecordSignature counts one recorded signature.
func (m *Metrics) RecordSignature(contractType, actor string) {
	if m == nil {
		return
	}
	m.Signatures.WithLabelValues(contractType, actor).Inc()
}

// RecordArchive counts one archived document.
func (m *Metrics) RecordArchive(contractType string) {
	if m == nil {
		return
	}
	m.Archives.WithLabelValues(contractType).Inc()
}
