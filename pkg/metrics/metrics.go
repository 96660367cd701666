package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// TrackInFlight marks a request as in flight and returns the
// function that marks it finished
func (r *Registry) TrackInFlight() func() {
	if r == nil {
		return func() {}
	}
	r.HTTPRequestsInFlight.Inc()
	return r.HTTPRequestsInFlight.Dec
}

// RecordGraphOperation records a graph mutation or lookup
func (r *Registry) RecordGraphOperation(operation, status string) {
	if r == nil {
		return
	}
	r.GraphOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordTraversal records a graph traversal with its duration
func (r *Registry) RecordTraversal(algorithm string, duration time.Duration) {
	if r == nil {
		return
	}
	r.GraphTraversalDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// UpdateGraphCounts updates the entity/relationship gauges
func (r *Registry) UpdateGraphCounts(entities, relationships int) {
	if r == nil {
		return
	}
	r.GraphEntitiesTotal.Set(float64(entities))
	r.GraphRelationshipsTotal.Set(float64(relationships))
}

// RecordAlert records a newly created alert
func (r *Registry) RecordAlert(module, severity string) {
	if r == nil {
		return
	}
	r.AlertsTotal.WithLabelValues(module, severity).Inc()
}

// RecordDeduplicated records an alert coalesced by deduplication
func (r *Registry) RecordDeduplicated() {
	if r == nil {
		return
	}
	r.AlertsDeduplicated.Inc()
}

// RecordEscalation records an escalation level increment
func (r *Registry) RecordEscalation() {
	if r == nil {
		return
	}
	r.AlertEscalationsTotal.Inc()
}

// RecordNotification records a notification channel attempt
func (r *Registry) RecordNotification(channel, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.NotificationsTotal.WithLabelValues(channel, status).Inc()
	r.NotificationDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// UpdateIndexScores updates the composite and per-module score gauges
func (r *Registry) UpdateIndexScores(overall float64, moduleScores map[string]float64) {
	if r == nil {
		return
	}
	r.SecurityIndexScore.Set(overall)
	for module, score := range moduleScores {
		r.ModuleScore.WithLabelValues(module).Set(score)
	}
}
