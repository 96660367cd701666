package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphEntitiesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "vajra_graph_entities_total",
			Help: "Total number of entities in the security graph",
		},
	)

	r.GraphRelationshipsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "vajra_graph_relationships_total",
			Help: "Total number of relationships in the security graph",
		},
	)

	r.GraphOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vajra_graph_operations_total",
			Help: "Total number of graph operations",
		},
		[]string{"operation", "status"},
	)

	r.GraphTraversalDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vajra_graph_traversal_duration_seconds",
			Help:    "Graph traversal duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"algorithm"},
	)
}
