package alerting

import (
	"time"
)

// Severity ranks an alert. Order matters: critical sorts first.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// severityOrder maps severities to sort rank (critical first). A severity
// "meets" a minimum filter if its rank is <= the configured rank.
var severityOrder = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// ValidSeverity reports whether s is a known severity
func ValidSeverity(s Severity) bool {
	_, ok := severityOrder[s]
	return ok
}

// meetsMinSeverity reports whether severity passes a channel's filter
func meetsMinSeverity(severity, minimum Severity) bool {
	return severityOrder[severity] <= severityOrder[minimum]
}

// Status tracks an alert through its lifecycle
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusDismissed    Status = "dismissed"
)

// Channel names a notification transport
type Channel string

const (
	ChannelSlack   Channel = "slack"
	ChannelDiscord Channel = "discord"
	ChannelWebhook Channel = "webhook"
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
)

// NotificationRecord is one channel attempt, recorded on the alert itself
type NotificationRecord struct {
	Channel Channel   `json:"channel"`
	SentAt  time.Time `json:"sentAt"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// Alert is one managed alert. Mutated only through the Manager's
// lifecycle methods; never deleted (retention is an external concern).
type Alert struct {
	ID          string         `json:"id"`
	Module      string         `json:"module"`
	Severity    Severity       `json:"severity"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Context     map[string]any `json:"context"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
	ResolvedBy     string     `json:"resolvedBy,omitempty"`
	Resolution     string     `json:"resolution,omitempty"`

	// EscalationLevel only ever increases
	EscalationLevel   int                  `json:"escalationLevel"`
	NotificationsSent []NotificationRecord `json:"notificationsSent"`
}

// Clone returns a deep copy so callers never alias manager-owned state
func (a *Alert) Clone() *Alert {
	clone := *a
	clone.Context = make(map[string]any, len(a.Context))
	for k, v := range a.Context {
		clone.Context[k] = v
	}
	clone.NotificationsSent = append([]NotificationRecord(nil), a.NotificationsSent...)
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		clone.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		clone.ResolvedAt = &t
	}
	return &clone
}

// Request carries the caller-supplied fields for a new alert
type Request struct {
	Module      string         `json:"module"`
	Severity    Severity       `json:"severity"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Context     map[string]any `json:"context"`
}

// dedupKey is the coalescing key for duplicate alerts
func (r Request) dedupKey() string {
	return r.Module + ":" + r.Type + ":" + r.Title
}

// Filter narrows GetAlerts results; empty slices match everything
type Filter struct {
	Status   []Status   `json:"status,omitempty"`
	Severity []Severity `json:"severity,omitempty"`
	Module   []string   `json:"module,omitempty"`
	Limit    int        `json:"limit,omitempty"`
}
