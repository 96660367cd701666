package vsi

import (
	"fmt"
	"math"
	"time"
)

// Per-module scoring rules. A module without a reported snapshot scores
// the documented default (75, healthy) rather than erroring. Callers must
// hold at least a read lock.

func (a *Aggregator) scoreShieldLocked() ModuleScore {
	score := defaultModuleScore
	status := StatusHealthy
	keyMetrics := make(map[string]any)

	if a.shield != nil {
		m := a.shield
		keyMetrics["Threats Blocked"] = m.BlockedThreats
		keyMetrics["Avg Bot Score"] = fmt.Sprintf("%.1f", m.AverageBotScore)

		// More blocked threats means the shield is doing its job
		bonus := 0.0
		if m.BlockedThreats > 100 {
			bonus = 15
		}
		score = math.Min(100, defaultModuleScore+bonus)
		if m.DDoSAttacks > 0 {
			score -= 10
			status = StatusWarning
		}
	}

	return a.moduleScoreLocked(ModuleShield, score, status, keyMetrics)
}

func (a *Aggregator) scoreScoutLocked() ModuleScore {
	score := defaultModuleScore
	status := StatusHealthy
	keyMetrics := make(map[string]any)

	if a.scout != nil {
		m := a.scout
		score = m.AverageVendorScore
		keyMetrics["Vendors"] = m.VendorCount
		keyMetrics["High Risk"] = m.HighRiskVendors
		keyMetrics["Compliance"] = fmt.Sprintf("%.0f%%", m.ComplianceRate)

		if m.HighRiskVendors > 0 {
			status = StatusWarning
		}
		if m.RecentBreaches > 0 {
			status = StatusCritical
		}
	}

	return a.moduleScoreLocked(ModuleScout, score, status, keyMetrics)
}

func (a *Aggregator) scoreSentryLocked() ModuleScore {
	score := defaultModuleScore
	status := StatusHealthy
	keyMetrics := make(map[string]any)

	if a.sentry != nil {
		m := a.sentry
		score = m.AverageSecurityScore
		keyMetrics["Employees"] = m.EmployeeCount
		keyMetrics["Training"] = fmt.Sprintf("%.0f%%", m.TrainingCompletion)
		keyMetrics["MFA"] = fmt.Sprintf("%.0f%%", m.MFAAdoption)
		keyMetrics["Phish-Prone"] = fmt.Sprintf("%.0f%%", m.PhishPronePercentage)

		if m.PhishPronePercentage > 30 {
			status = StatusWarning
		}
		if m.RecentPhishingClicks > 5 {
			status = StatusCritical
		}
	}

	return a.moduleScoreLocked(ModuleSentry, score, status, keyMetrics)
}

func (a *Aggregator) scoreAegisLocked() ModuleScore {
	score := defaultModuleScore
	status := StatusHealthy
	keyMetrics := make(map[string]any)

	if a.aegis != nil {
		m := a.aegis
		score = m.SecurityScore
		keyMetrics["Critical"] = m.CriticalVulns
		keyMetrics["High"] = m.HighVulns
		keyMetrics["Secrets"] = m.SecretsFound

		if m.CriticalVulns > 0 {
			status = StatusCritical
		} else if m.HighVulns > 3 {
			status = StatusWarning
		}
	}

	return a.moduleScoreLocked(ModuleAegis, score, status, keyMetrics)
}

func (a *Aggregator) moduleScoreLocked(module Module, score float64, status Status, keyMetrics map[string]any) ModuleScore {
	var lastActivity *time.Time
	if t, ok := a.lastActivity[module]; ok {
		lastActivity = &t
	}
	return ModuleScore{
		Score:        score,
		Weight:       moduleWeights[module],
		Status:       status,
		Trend:        TrendStable,
		KeyMetrics:   keyMetrics,
		LastActivity: lastActivity,
	}
}
