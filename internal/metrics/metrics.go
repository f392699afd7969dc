package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the region router
type Metrics struct {
	registry *prometheus.Registry

	HealthyRegions  prometheus.Gauge
	ProbeDuration   *prometheus.HistogramVec
	ProbeFailures   *prometheus.CounterVec
	ForwardDuration *prometheus.HistogramVec
	FailoverEvents  *prometheus.CounterVec
	Exhaustions     prometheus.Counter
}

// New creates and registers all collectors on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HealthyRegions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "region_router_healthy_regions",
			Help: "Number of regions currently considered healthy.",
		}),
		ProbeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "region_router_probe_duration_seconds",
			Help:    "Health probe round-trip time per region.",
			Buckets: prometheus.DefBuckets,
		}, []string{"region"}),
		ProbeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "region_router_probe_failures_total",
			Help: "Failed health probes per region.",
		}, []string{"region"}),
		ForwardDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "region_router_forward_duration_seconds",
			Help:    "Forwarded request round-trip time per region.",
			Buckets: prometheus.DefBuckets,
		}, []string{"region"}),
		FailoverEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "region_router_failover_events_total",
			Help: "Failed routing attempts per originating region.",
		}, []string{"region"}),
		Exhaustions: factory.NewCounter(prometheus.CounterOpts{
			Name: "region_router_failover_exhaustions_total",
			Help: "Requests that exhausted every candidate region.",
		}),
	}
}

// Handler exposes the registry for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
