package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sync outcomes recorded after a member type field value is saved.
const (
	OutcomeAssigned    = "assigned"
	OutcomeCleared     = "cleared"
	OutcomeSkipped     = "skipped"
	OutcomeUndecodable = "undecodable"
)

// Metrics holds the collectors exported by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	syncs    *prometheus.CounterVec
	renders  *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xprofile",
			Subsystem: "membertype",
			Name:      "sync_total",
			Help:      "Member type synchronizations after a profile value save, by outcome.",
		}, []string{"outcome"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xprofile",
			Subsystem: "membertype",
			Name:      "render_total",
			Help:      "Member type field renders, by mode.",
		}, []string{"mode"}),
		gatherer: reg,
	}
	reg.MustRegister(m.syncs, m.renders)
	return m
}

func (m *Metrics) ObserveSync(outcome string) {
	if m == nil {
		return
	}
	m.syncs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRender(mode string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(mode).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// SyncCounter exposes the counter for outcome.
func (m *Metrics) SyncCounter(outcome string) prometheus.Counter {
	return m.syncs.WithLabelValues(outcome)
}

// RenderCounter exposes the counter for mode.
func (m *Metrics) RenderCounter(mode string) prometheus.Counter {
	return m.renders.WithLabelValues(mode)
}
