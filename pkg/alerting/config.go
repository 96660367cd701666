package alerting

import (
	"fmt"
	"time"
)

// SlackChannel configures the Slack incoming-webhook channel
type SlackChannel struct {
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	WebhookURL  string   `json:"webhookUrl" yaml:"webhookUrl"`
	Channel     string   `json:"channel" yaml:"channel"`
	MinSeverity Severity `json:"minSeverity" yaml:"minSeverity"`
}

// DiscordChannel configures the Discord webhook channel
type DiscordChannel struct {
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	WebhookURL  string   `json:"webhookUrl" yaml:"webhookUrl"`
	MinSeverity Severity `json:"minSeverity" yaml:"minSeverity"`
}

// WebhookChannel configures the generic JSON webhook channel
type WebhookChannel struct {
	Enabled     bool              `json:"enabled" yaml:"enabled"`
	URL         string            `json:"url" yaml:"url"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	MinSeverity Severity          `json:"minSeverity" yaml:"minSeverity"`
}

// EmailChannel is declared for configuration parity; delivery requires an
// external mail service and is not dispatched by this core.
type EmailChannel struct {
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	Recipients  []string `json:"recipients" yaml:"recipients"`
	MinSeverity Severity `json:"minSeverity" yaml:"minSeverity"`
}

// Channels groups the configured notification transports
type Channels struct {
	Slack   *SlackChannel   `json:"slack,omitempty" yaml:"slack,omitempty"`
	Discord *DiscordChannel `json:"discord,omitempty" yaml:"discord,omitempty"`
	Webhook *WebhookChannel `json:"webhook,omitempty" yaml:"webhook,omitempty"`
	Email   *EmailChannel   `json:"email,omitempty" yaml:"email,omitempty"`
}

// Deduplication coalesces identical alerts within a time window
type Deduplication struct {
	Enabled       bool `json:"enabled" yaml:"enabled"`
	WindowSeconds int  `json:"windowSeconds" yaml:"windowSeconds"`
}

// EscalationLevel is one time-based escalation rule
type EscalationLevel struct {
	AfterMinutes   int      `json:"afterMinutes" yaml:"afterMinutes"`
	NotifyChannels []string `json:"notifyChannels" yaml:"notifyChannels"`
}

// Escalation holds the ordered escalation rules
type Escalation struct {
	Enabled bool              `json:"enabled" yaml:"enabled"`
	Levels  []EscalationLevel `json:"levels" yaml:"levels"`
}

// QuietHours suppresses dispatch inside a local-time window, wrap-around
// aware, unless the alert severity is in the exception list
type QuietHours struct {
	Enabled          bool       `json:"enabled" yaml:"enabled"`
	Start            string     `json:"start" yaml:"start"` // "22:00"
	End              string     `json:"end" yaml:"end"`     // "08:00"
	ExceptSeverities []Severity `json:"exceptSeverities" yaml:"exceptSeverities"`
}

// contains reports whether severity bypasses quiet hours
func (q *QuietHours) contains(severity Severity) bool {
	for _, s := range q.ExceptSeverities {
		if s == severity {
			return true
		}
	}
	return false
}

// active reports whether t falls inside the window. A window whose start
// is after its end wraps around midnight.
func (q *QuietHours) active(t time.Time) bool {
	if q == nil || !q.Enabled {
		return false
	}
	current := fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	if q.Start > q.End {
		return current >= q.Start || current < q.End
	}
	return current >= q.Start && current < q.End
}

// Config is the alert manager's configuration surface
type Config struct {
	Channels      Channels      `json:"channels" yaml:"channels"`
	Deduplication Deduplication `json:"deduplication" yaml:"deduplication"`
	Escalation    Escalation    `json:"escalation" yaml:"escalation"`
	QuietHours    *QuietHours   `json:"quietHours,omitempty" yaml:"quietHours,omitempty"`
}

// DefaultConfig returns the baseline configuration: deduplication on with
// a 300s window, no channels, escalation off.
func DefaultConfig() Config {
	return Config{
		Deduplication: Deduplication{Enabled: true, WindowSeconds: 300},
		Escalation:    Escalation{Enabled: false},
	}
}

// dedupWindow returns the deduplication window as a duration
func (c Config) dedupWindow() time.Duration {
	return time.Duration(c.Deduplication.WindowSeconds) * time.Second
}
