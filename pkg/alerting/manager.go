// Package alerting manages the full alert lifecycle: creation with
// deduplication, status transitions, time-based escalation and
// fan-out to notification channels.
package alerting

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shikhar1809/vajra-core/pkg/events"
	"github.com/shikhar1809/vajra-core/pkg/logging"
	"github.com/shikhar1809/vajra-core/pkg/metrics"
)

// channelTimeout bounds each notification channel attempt
const channelTimeout = 5 * time.Second

// Manager owns all alerts and their notification history
type Manager struct {
	mu         sync.RWMutex
	alerts     map[string]*Alert
	dedupCache map[string]time.Time
	config     Config

	httpClient *http.Client
	logger     logging.Logger
	registry   *metrics.Registry
	bus        *events.Bus

	// dispatches tracks in-flight notification goroutines so shutdown
	// can drain them
	dispatches sync.WaitGroup

	// now is swapped in tests to control clock-dependent behavior
	now func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the structured logger
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics registry
func WithMetrics(r *metrics.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithEventBus sets the change-event bus
func WithEventBus(b *events.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithHTTPClient overrides the channel dispatch client
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// NewManager creates an alert manager with the given configuration
func NewManager(config Config, opts ...Option) *Manager {
	if config.Deduplication.WindowSeconds == 0 {
		config.Deduplication.WindowSeconds = 300
	}
	m := &Manager{
		alerts:     make(map[string]*Alert),
		dedupCache: make(map[string]time.Time),
		config:     config,
		httpClient: &http.Client{Timeout: channelTimeout},
		logger:     logging.NewNopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Alert creates and stores a new alert, then dispatches notifications in
// the background; the call returns before dispatch completes. If a
// pending alert with the same (module, type, title) was created within
// the deduplication window, that alert is returned unchanged and nothing
// is dispatched.
func (m *Manager) Alert(req Request) *Alert {
	now := m.now()

	m.mu.Lock()

	if existing := m.findDuplicateLocked(req, now); existing != nil {
		result := existing.Clone()
		m.mu.Unlock()
		m.registry.RecordDeduplicated()
		m.logger.Debug("alert deduplicated",
			logging.AlertID(result.ID),
			logging.Module(req.Module),
			logging.String("type", req.Type))
		return result
	}

	alert := &Alert{
		ID:                uuid.NewString(),
		Module:            req.Module,
		Severity:          req.Severity,
		Type:              req.Type,
		Title:             req.Title,
		Description:       req.Description,
		Context:           req.Context,
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		NotificationsSent: make([]NotificationRecord, 0),
	}
	if alert.Context == nil {
		alert.Context = make(map[string]any)
	}

	m.alerts[alert.ID] = alert
	m.updateDedupCacheLocked(req, now)
	result := alert.Clone()
	m.mu.Unlock()

	m.registry.RecordAlert(req.Module, string(req.Severity))
	m.logger.Info("alert created",
		logging.AlertID(alert.ID),
		logging.Module(req.Module),
		logging.Severity(string(req.Severity)))
	m.publish(events.TopicAlertRaised, result)

	m.dispatches.Add(1)
	go func() {
		defer m.dispatches.Done()
		m.dispatchAll(result.Clone())
	}()

	return result
}

// Acknowledge transitions a pending alert to acknowledged. Returns false
// for unknown ids or any other state.
func (m *Manager) Acknowledge(id, by string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok || alert.Status != StatusPending {
		return false
	}

	now := m.now()
	alert.Status = StatusAcknowledged
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = by
	alert.UpdatedAt = now
	return true
}

// Resolve transitions any non-resolved alert to resolved
func (m *Manager) Resolve(id, by, resolution string) bool {
	m.mu.Lock()

	alert, ok := m.alerts[id]
	if !ok || alert.Status == StatusResolved {
		m.mu.Unlock()
		return false
	}

	now := m.now()
	alert.Status = StatusResolved
	alert.ResolvedAt = &now
	alert.ResolvedBy = by
	alert.Resolution = resolution
	alert.UpdatedAt = now
	result := alert.Clone()
	m.mu.Unlock()

	m.publish(events.TopicAlertResolved, result)
	return true
}

// Dismiss marks an alert dismissed from any status
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return false
	}

	alert.Status = StatusDismissed
	alert.UpdatedAt = m.now()
	return true
}

// GetAlert returns the alert with the given id, or nil if unknown
func (m *Manager) GetAlert(id string) *Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alert, ok := m.alerts[id]
	if !ok {
		return nil
	}
	return alert.Clone()
}

// GetAlerts returns alerts matching the filter, most severe first and
// newest within a severity
func (m *Manager) GetAlerts(filter Filter) []*Alert {
	m.mu.RLock()

	result := make([]*Alert, 0, len(m.alerts))
	for _, alert := range m.alerts {
		if !matchesFilter(alert, filter) {
			continue
		}
		result = append(result, alert.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if severityOrder[result[i].Severity] != severityOrder[result[j].Severity] {
			return severityOrder[result[i].Severity] < severityOrder[result[j].Severity]
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result
}

// GetPendingCounts returns the number of pending alerts per severity
func (m *Manager) GetPendingCounts() map[string]int {
	counts := map[string]int{
		string(SeverityCritical): 0,
		string(SeverityHigh):     0,
		string(SeverityMedium):   0,
		string(SeverityLow):      0,
		string(SeverityInfo):     0,
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, alert := range m.alerts {
		if alert.Status == StatusPending {
			counts[string(alert.Severity)]++
		}
	}
	return counts
}

// UpdateConfig replaces the manager's configuration
func (m *Manager) UpdateConfig(config Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = config
}

// CheckEscalations walks every pending alert through the ordered
// escalation rules, incrementing the escalation level (a monotonic
// ratchet, never above the number of rules) and re-dispatching to each
// crossed rule's channels.
//
// The caller is responsible for running at most one sweep at a time; two
// concurrent sweeps could observe the same level and escalate twice.
func (m *Manager) CheckEscalations() {
	m.mu.RLock()
	enabled := m.config.Escalation.Enabled
	levels := append([]EscalationLevel(nil), m.config.Escalation.Levels...)
	m.mu.RUnlock()

	if !enabled || len(levels) == 0 {
		return
	}

	type escalation struct {
		alert    *Alert
		channels []string
	}
	var pending []escalation

	now := m.now()
	m.mu.Lock()
	for _, alert := range m.alerts {
		if alert.Status != StatusPending {
			continue
		}
		ageMinutes := now.Sub(alert.CreatedAt).Minutes()
		for idx, level := range levels {
			if ageMinutes >= float64(level.AfterMinutes) && alert.EscalationLevel < idx+1 {
				alert.EscalationLevel++
				alert.UpdatedAt = now
				pending = append(pending, escalation{
					alert:    alert.Clone(),
					channels: level.NotifyChannels,
				})
			}
		}
	}
	m.mu.Unlock()

	for _, e := range pending {
		m.registry.RecordEscalation()
		m.logger.Warn("alert escalated",
			logging.AlertID(e.alert.ID),
			logging.Int("level", e.alert.EscalationLevel))
		m.publish(events.TopicAlertEscalated, e.alert)
		for _, name := range e.channels {
			m.sendToChannel(e.alert, Channel(name))
		}
	}
}

// Drain blocks until all in-flight notification dispatches finish
func (m *Manager) Drain() {
	m.dispatches.Wait()
}

// findDuplicateLocked returns the pending alert coalescing this request,
// or nil. Caller must hold the write lock.
func (m *Manager) findDuplicateLocked(req Request, now time.Time) *Alert {
	if !m.config.Deduplication.Enabled {
		return nil
	}

	lastSeen, ok := m.dedupCache[req.dedupKey()]
	if !ok || now.Sub(lastSeen) >= m.config.dedupWindow() {
		return nil
	}

	for _, alert := range m.alerts {
		if alert.Status == StatusPending &&
			alert.Module == req.Module &&
			alert.Type == req.Type &&
			alert.Title == req.Title {
			return alert
		}
	}
	return nil
}

// updateDedupCacheLocked records the request key and evicts expired
// entries. Caller must hold the write lock.
func (m *Manager) updateDedupCacheLocked(req Request, now time.Time) {
	m.dedupCache[req.dedupKey()] = now

	cutoff := now.Add(-m.config.dedupWindow())
	for key, seen := range m.dedupCache {
		if seen.Before(cutoff) {
			delete(m.dedupCache, key)
		}
	}
}

func (m *Manager) publish(topic string, alert *Alert) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.ChangeEvent{
		Topic:   topic,
		Subject: alert.ID,
		Module:  alert.Module,
		Payload: alert,
	})
}

func matchesFilter(alert *Alert, filter Filter) bool {
	if len(filter.Status) > 0 && !containsStatus(filter.Status, alert.Status) {
		return false
	}
	if len(filter.Severity) > 0 && !containsSeverity(filter.Severity, alert.Severity) {
		return false
	}
	if len(filter.Module) > 0 && !containsString(filter.Module, alert.Module) {
		return false
	}
	return true
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsSeverity(list []Severity, s Severity) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
