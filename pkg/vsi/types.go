package vsi

import (
	"time"
)

// Module names the four contributing security modules
type Module string

const (
	ModuleShield Module = "shield" // network/bot protection
	ModuleScout  Module = "scout"  // vendor risk
	ModuleSentry Module = "sentry" // employee risk
	ModuleAegis  Module = "aegis"  // code security
)

// Modules lists the contributing modules in weight order
var Modules = []Module{ModuleShield, ModuleScout, ModuleAegis, ModuleSentry}

// Status classifies a module's health
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Grade is the letter grade for the composite score
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Trend describes score movement over time. Historical windows are not
// tracked, so every trend is the stable sentinel rather than a fabricated
// moving average.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Severity mirrors alert severities for recorded events
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// ShieldMetrics is the latest snapshot from the network protection module
type ShieldMetrics struct {
	BlockedThreats        int     `json:"blockedThreats"`
	RequestsAnalyzed      int     `json:"requestsAnalyzed"`
	AverageBotScore       float64 `json:"averageBotScore"`
	BunkerModeActivations int     `json:"bunkerModeActivations"`
	DDoSAttacks           int     `json:"ddosAttacks"`
}

// ScoutMetrics is the latest snapshot from the vendor scanning module
type ScoutMetrics struct {
	VendorCount        int     `json:"vendorCount"`
	AverageVendorScore float64 `json:"averageVendorScore"`
	HighRiskVendors    int     `json:"highRiskVendors"`
	RecentBreaches     int     `json:"recentBreaches"`
	ComplianceRate     float64 `json:"complianceRate"`
}

// SentryMetrics is the latest snapshot from the employee risk module
type SentryMetrics struct {
	EmployeeCount        int     `json:"employeeCount"`
	AverageSecurityScore float64 `json:"averageSecurityScore"`
	PhishPronePercentage float64 `json:"phishPronePercentage"`
	TrainingCompletion   float64 `json:"trainingCompletion"`
	MFAAdoption          float64 `json:"mfaAdoption"`
	RecentPhishingClicks int     `json:"recentPhishingClicks"`
}

// AegisMetrics is the latest snapshot from the code scanning module
type AegisMetrics struct {
	SecurityScore float64 `json:"securityScore"`
	CriticalVulns int     `json:"criticalVulns"`
	HighVulns     int     `json:"highVulns"`
	MediumVulns   int     `json:"mediumVulns"`
	SecretsFound  int     `json:"secretsFound"`
	OutdatedDeps  int     `json:"outdatedDeps"`
}

// ModuleScore is the scored state of one module
type ModuleScore struct {
	Score        float64        `json:"score"`
	Weight       float64        `json:"weight"`
	Status       Status         `json:"status"`
	Trend        Trend          `json:"trend"`
	KeyMetrics   map[string]any `json:"keyMetrics"`
	LastActivity *time.Time     `json:"lastActivity"`
}

// RiskSummary aggregates open risk across the graph, event log and alerts
type RiskSummary struct {
	CriticalIssues int `json:"criticalIssues"`
	HighIssues     int `json:"highIssues"`
	ActiveThreats  int `json:"activeThreats"`
	PendingActions int `json:"pendingActions"`
}

// SecurityEvent is one entry of the rolling cross-module event log
type SecurityEvent struct {
	ID          string    `json:"id"`
	Module      Module    `json:"module"`
	Type        string    `json:"type"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Handled     bool      `json:"handled"`
}

// Recommendation is one ranked action item
type Recommendation struct {
	Priority    int    `json:"priority"`
	Module      Module `json:"module"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Index is the Vajra Security Index: the weighted composite posture score
type Index struct {
	OverallScore int                    `json:"overallScore"`
	Grade        Grade                  `json:"grade"`
	Trend        Trend                  `json:"trend"`
	ModuleScores map[Module]ModuleScore `json:"moduleScores"`
	RiskSummary  RiskSummary            `json:"riskSummary"`
	RecentEvents []SecurityEvent        `json:"recentEvents"`
	Recommendations []Recommendation    `json:"recommendations"`
	LastUpdated  time.Time              `json:"lastUpdated"`
}

// KeyMetric is one headline row of the executive summary
type KeyMetric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend string `json:"trend"`
}

// ExecutiveSummary is the leadership-level projection of the index
type ExecutiveSummary struct {
	Headline    string      `json:"headline"`
	MainRisk    string      `json:"mainRisk"`
	KeyMetrics  []KeyMetric `json:"keyMetrics"`
	ActionItems []string    `json:"actionItems"`
}
