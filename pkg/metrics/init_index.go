package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIndexMetrics() {
	r.SecurityIndexScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "vajra_security_index_score",
			Help: "Current overall Vajra Security Index (0-100)",
		},
	)

	r.ModuleScore = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vajra_module_score",
			Help: "Current per-module security score (0-100)",
		},
		[]string{"module"},
	)
}
