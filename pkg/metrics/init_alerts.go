package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAlertMetrics() {
	r.AlertsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vajra_alerts_total",
			Help: "Total number of alerts created",
		},
		[]string{"module", "severity"},
	)

	r.AlertsDeduplicated = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "vajra_alerts_deduplicated_total",
			Help: "Total number of alerts coalesced by deduplication",
		},
	)

	r.AlertEscalationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "vajra_alert_escalations_total",
			Help: "Total number of alert escalation level increments",
		},
	)

	r.NotificationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "vajra_notifications_total",
			Help: "Total number of notification channel attempts",
		},
		[]string{"channel", "status"},
	)

	r.NotificationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vajra_notification_duration_seconds",
			Help:    "Notification channel dispatch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"channel"},
	)
}
