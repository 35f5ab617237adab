// Package metrics exposes Prometheus instrumentation for observe and
// reconcile passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pass kinds
const (
	PassObserve   = "observe"
	PassReconcile = "reconcile"
)

// Registry holds all metrics for the application
type Registry struct {
	// Pass Metrics
	PassesTotal  *prometheus.CounterVec
	PassDuration *prometheus.HistogramVec

	// Source Metrics
	SourceUnavailableTotal *prometheus.CounterVec

	// Model Metrics
	Hosts   prometheus.Gauge
	Routers prometheus.Gauge
	Links   *prometheus.GaugeVec

	// Merge Metrics
	GhostsDroppedTotal        prometheus.Counter
	SubstringResolutionsTotal prometheus.Counter

	// Controller Write Metrics
	WriteCallsTotal *prometheus.CounterVec

	// HTTP Metrics
	HTTPRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{registry: reg}
	factory := promauto.With(reg)

	r.PassesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnview_passes_total",
			Help: "Observe and reconcile passes by outcome",
		},
		[]string{"kind", "outcome"},
	)
	r.PassDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdnview_pass_duration_seconds",
			Help:    "Duration of observe and reconcile passes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	r.SourceUnavailableTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnview_source_unavailable_total",
			Help: "Controller sources that failed or timed out during a pass",
		},
		[]string{"source"},
	)
	r.Hosts = factory.NewGauge(prometheus.GaugeOpts{
		Name: "sdnview_hosts",
		Help: "Hosts in the latest snapshot",
	})
	r.Routers = factory.NewGauge(prometheus.GaugeOpts{
		Name: "sdnview_routers",
		Help: "Routers in the latest snapshot",
	})
	r.Links = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sdnview_links",
			Help: "Links in the latest snapshot by kind",
		},
		[]string{"kind"},
	)
	r.GhostsDroppedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "sdnview_ghosts_dropped_total",
		Help: "Host records dropped as ghosts",
	})
	r.SubstringResolutionsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "sdnview_substring_resolutions_total",
		Help: "Host attachments resolved by substring match",
	})
	r.WriteCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnview_controller_writes_total",
			Help: "Controller write calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	r.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnview_http_requests_total",
			Help: "API requests by method and status",
		},
		[]string{"method", "status"},
	)

	return r
}

// RecordPass records the outcome and duration of one pass
func (r *Registry) RecordPass(kind string, failed bool, duration time.Duration) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	r.PassesTotal.WithLabelValues(kind, outcome).Inc()
	r.PassDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordUnavailable counts sources that were substituted with empty results
func (r *Registry) RecordUnavailable(sources []string) {
	for _, s := range sources {
		r.SourceUnavailableTotal.WithLabelValues(s).Inc()
	}
}

// RecordSnapshot updates the model gauges
func (r *Registry) RecordSnapshot(hosts, routers int, linksByKind map[string]int, ghosts, substring int) {
	r.Hosts.Set(float64(hosts))
	r.Routers.Set(float64(routers))
	r.Links.Reset()
	for kind, n := range linksByKind {
		r.Links.WithLabelValues(kind).Set(float64(n))
	}
	r.GhostsDroppedTotal.Add(float64(ghosts))
	r.SubstringResolutionsTotal.Add(float64(substring))
}

// RecordWrite counts one controller write call
func (r *Registry) RecordWrite(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	r.WriteCallsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordHTTPRequest counts one API request
func (r *Registry) RecordHTTPRequest(method, status string) {
	r.HTTPRequestsTotal.WithLabelValues(method, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
