package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the correlation core
type Registry struct {
	registry *prometheus.Registry

	// Graph metrics
	GraphEntitiesTotal      prometheus.Gauge
	GraphRelationshipsTotal prometheus.Gauge
	GraphOperationsTotal    *prometheus.CounterVec
	GraphTraversalDuration  *prometheus.HistogramVec

	// Alerting metrics
	AlertsTotal            *prometheus.CounterVec
	AlertsDeduplicated     prometheus.Counter
	AlertEscalationsTotal  prometheus.Counter
	NotificationsTotal     *prometheus.CounterVec
	NotificationDuration   *prometheus.HistogramVec

	// Security index metrics
	SecurityIndexScore prometheus.Gauge
	ModuleScore        *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// NewRegistry creates a metrics registry with all collectors registered
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.registry.MustRegister(collectors.NewGoCollector())
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r.initGraphMetrics()
	r.initAlertMetrics()
	r.initIndexMetrics()
	r.initHTTPMetrics()

	return r
}

// Handler returns an HTTP handler serving the registry in Prometheus format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
