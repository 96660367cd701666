// Package vsi computes the Vajra Security Index: a weighted 0-100
// composite of the four module scores, enriched with graph-derived risk
// findings and a rolling cross-module event log.
package vsi

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shikhar1809/vajra-core/pkg/graph"
	"github.com/shikhar1809/vajra-core/pkg/metrics"
)

// Fixed module weights. Shield carries the most weight as the outermost
// line of defense.
var moduleWeights = map[Module]float64{
	ModuleShield: 0.30,
	ModuleScout:  0.25,
	ModuleAegis:  0.25,
	ModuleSentry: 0.20,
}

const (
	defaultModuleScore = 75.0
	eventLogCap        = 1000
	eventLogTrimTo     = 500
	recentEventLimit   = 10
)

// CombinationSource supplies graph-derived toxic combinations
type CombinationSource interface {
	FindToxicCombinations() []graph.ToxicCombination
}

// AlertCounter supplies unresolved alert counts keyed by severity string
type AlertCounter interface {
	GetPendingCounts() map[string]int
}

// Aggregator computes the index from per-module snapshots and graph findings
type Aggregator struct {
	mu sync.RWMutex

	shield       *ShieldMetrics
	scout        *ScoutMetrics
	sentry       *SentryMetrics
	aegis        *AegisMetrics
	lastActivity map[Module]time.Time

	events []SecurityEvent

	combinations CombinationSource
	alerts       AlertCounter
	registry     *metrics.Registry
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithAlertCounter folds unresolved alert counts into the risk summary
func WithAlertCounter(c AlertCounter) Option {
	return func(a *Aggregator) { a.alerts = c }
}

// WithMetrics sets the metrics registry
func WithMetrics(r *metrics.Registry) Option {
	return func(a *Aggregator) { a.registry = r }
}

// NewAggregator creates an aggregator reading toxic combinations from src.
// Panics if the fixed module weights do not sum to 1.0; that is a build
// defect, not a runtime condition.
func NewAggregator(src CombinationSource, opts ...Option) *Aggregator {
	var sum float64
	for _, w := range moduleWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		panic(fmt.Sprintf("vsi: module weights sum to %v, want 1.0", sum))
	}

	a := &Aggregator{
		combinations: src,
		lastActivity: make(map[Module]time.Time),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UpdateShield replaces the shield module's latest snapshot
func (a *Aggregator) UpdateShield(m ShieldMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shield = &m
	a.lastActivity[ModuleShield] = time.Now()
}

// UpdateScout replaces the scout module's latest snapshot
func (a *Aggregator) UpdateScout(m ScoutMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scout = &m
	a.lastActivity[ModuleScout] = time.Now()
}

// UpdateSentry replaces the sentry module's latest snapshot
func (a *Aggregator) UpdateSentry(m SentryMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sentry = &m
	a.lastActivity[ModuleSentry] = time.Now()
}

// UpdateAegis replaces the aegis module's latest snapshot
func (a *Aggregator) UpdateAegis(m AegisMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aegis = &m
	a.lastActivity[ModuleAegis] = time.Now()
}

// RecordEvent appends to the rolling event log. The log is trimmed to the
// most recent entries once it exceeds its cap.
func (a *Aggregator) RecordEvent(module Module, eventType string, severity Severity, title, description string) SecurityEvent {
	event := SecurityEvent{
		ID:          uuid.NewString(),
		Module:      module,
		Type:        eventType,
		Severity:    severity,
		Title:       title,
		Description: description,
		Timestamp:   time.Now(),
	}

	a.mu.Lock()
	a.events = append(a.events, event)
	if len(a.events) > eventLogCap {
		a.events = append([]SecurityEvent(nil), a.events[len(a.events)-eventLogTrimTo:]...)
	}
	a.mu.Unlock()

	return event
}

// HandleEvent marks an event handled. Returns false for unknown ids.
func (a *Aggregator) HandleEvent(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.events {
		if a.events[i].ID == id {
			a.events[i].Handled = true
			return true
		}
	}
	return false
}

// Calculate computes the current index. It never fails: modules without a
// snapshot contribute the documented default (score 75, healthy).
func (a *Aggregator) Calculate() Index {
	a.mu.RLock()

	moduleScores := map[Module]ModuleScore{
		ModuleShield: a.scoreShieldLocked(),
		ModuleScout:  a.scoreScoutLocked(),
		ModuleSentry: a.scoreSentryLocked(),
		ModuleAegis:  a.scoreAegisLocked(),
	}

	var overall float64
	for module, score := range moduleScores {
		overall += score.Score * moduleWeights[module]
	}
	overallScore := int(math.Round(overall))

	recentEvents := a.recentEventsLocked()
	unhandled := 0
	unhandledCritical := 0
	for _, e := range a.events {
		if !e.Handled {
			unhandled++
			if e.Severity == SeverityCritical {
				unhandledCritical++
			}
		}
	}

	a.mu.RUnlock()

	toxic := a.combinations.FindToxicCombinations()
	summary := RiskSummary{
		ActiveThreats:  unhandledCritical,
		PendingActions: unhandled,
	}
	for _, c := range toxic {
		switch c.Priority {
		case graph.PriorityCritical:
			summary.CriticalIssues++
		case graph.PriorityHigh:
			summary.HighIssues++
		}
	}
	if a.alerts != nil {
		pending := a.alerts.GetPendingCounts()
		summary.ActiveThreats += pending["critical"]
		for _, n := range pending {
			summary.PendingActions += n
		}
	}

	index := Index{
		OverallScore:    overallScore,
		Grade:           scoreToGrade(overallScore),
		Trend:           TrendStable,
		ModuleScores:    moduleScores,
		RiskSummary:     summary,
		RecentEvents:    recentEvents,
		Recommendations: buildRecommendations(moduleScores, toxic),
		LastUpdated:     time.Now(),
	}

	gauges := make(map[string]float64, len(moduleScores))
	for module, score := range moduleScores {
		gauges[string(module)] = score.Score
	}
	a.registry.UpdateIndexScores(float64(overallScore), gauges)

	return index
}

// recentEventsLocked returns the newest events, most recent first
func (a *Aggregator) recentEventsLocked() []SecurityEvent {
	recent := append([]SecurityEvent(nil), a.events...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > recentEventLimit {
		recent = recent[:recentEventLimit]
	}
	return recent
}

func scoreToGrade(score int) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// buildRecommendations ranks the top toxic combinations ahead of any
// module in critical status, in that fixed order.
func buildRecommendations(moduleScores map[Module]ModuleScore, toxic []graph.ToxicCombination) []Recommendation {
	recommendations := make([]Recommendation, 0)
	priority := 1

	limit := len(toxic)
	if limit > 3 {
		limit = 3
	}
	for _, c := range toxic[:limit] {
		recommendations = append(recommendations, Recommendation{
			Priority:    priority,
			Module:      ModuleShield,
			Title:       fmt.Sprintf("Fix: %s...", truncate(c.Description, 50)),
			Description: c.Description,
			Impact:      "Reduces attack surface significantly",
		})
		priority++
	}

	for _, module := range Modules {
		if moduleScores[module].Status != StatusCritical {
			continue
		}
		upper := strings.ToUpper(string(module))
		recommendations = append(recommendations, Recommendation{
			Priority:    priority,
			Module:      module,
			Title:       fmt.Sprintf("Critical issues in %s", upper),
			Description: fmt.Sprintf("%s module has critical issues that need immediate attention", upper),
			Impact:      "Prevents potential compromise",
		})
		priority++
	}

	return recommendations
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
