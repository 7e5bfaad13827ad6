package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for actor resolution, the authorization
// gate in front of every contract operation.
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	RemoteFallbacks prometheus.Counter
	BreakerOpened   prometheus.Counter
}

// New creates a new Metrics instance with all actor module metrics registered.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pactum_actor_resolutions_total",
			Help: "Actor resolutions by path (cache, remote, local) and resolved role",
		}, []string{"path", "role"}),
		RemoteFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pactum_actor_remote_fallbacks_total",
			Help: "Resolutions that fell back to the local lookup after a remote failure",
		}),
		BreakerOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pactum_actor_breaker_opened_total",
			Help: "Times the verify-actor circuit breaker transitioned to open",
		}),
	}
}

// RecordResolution counts one resolution through the given path.
func (m *Metrics) RecordResolution(path, role string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(path, role).Inc()
}

// RecordRemoteFallback counts a remote failure that was absorbed locally.
func (m *Metrics) RecordRemoteFallback() {
	if m == nil {
		return
	}
	m.RemoteFallbacks.Inc()
}

// RecordBreakerOpened counts a breaker open transition.
func (m *Metrics) RecordBreakerOpened() {
	if m == nil {
		return
	}
	m.BreakerOpened.Inc()
}
