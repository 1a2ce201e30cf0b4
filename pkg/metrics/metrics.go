// Package metrics exposes the process's Prometheus instrumentation: a
// handful of counters and histograms describing queue dispatch and
// workflow-run outcomes, registered against a private Registry so
// tests never fight over prometheus's global DefaultRegisterer.
// Grounded on the CounterVec/Registry construction style used for
// gateway error-recovery metrics in the retrieved kubernaut repo,
// generalized from test-only registries to one built and scraped at
// process runtime.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the orchestrator's runtime metrics and the
// Registry they are registered against.
type Registry struct {
	registry *prometheus.Registry

	DispatchTotal   *prometheus.CounterVec
	DispatchSeconds *prometheus.HistogramVec
	QueueDepth      prometheus.Gauge
}

// New constructs a Registry with every metric registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_dispatch_total",
			Help: "Total number of queue dispatches, partitioned by outcome.",
		}, []string{"outcome"}),
		DispatchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orchestrator_dispatch_seconds",
			Help:    "Wall-clock duration of one queue dispatch (task admission to workflow completion).",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~34min
		}, []string{"outcome"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orchestrator_queue_depth",
			Help: "Number of requests currently queued (admitted but not yet dispatched, plus waiting).",
		}),
	}

	reg.MustRegister(r.DispatchTotal, r.DispatchSeconds, r.QueueDepth)
	return r
}

// Handler returns the HTTP handler to mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveDispatch records one completed dispatch's outcome and duration.
func (r *Registry) ObserveDispatch(outcome string, seconds float64) {
	r.DispatchTotal.WithLabelValues(outcome).Inc()
	r.DispatchSeconds.WithLabelValues(outcome).Observe(seconds)
}
