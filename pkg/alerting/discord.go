package alerting

import (
	"errors"
	"strings"
	"time"
)

// severityColorInts is the Slack palette as integers for Discord embeds
var severityColorInts = map[Severity]int{
	SeverityCritical: 0xdc3545,
	SeverityHigh:     0xfd7e14,
	SeverityMedium:   0xffc107,
	SeverityLow:      0x17a2b8,
	SeverityInfo:     0x6c757d,
}

// sendDiscord posts the alert as a Discord embed. The payload shape is a
// published interop contract; field names and ordering must not change.
func (m *Manager) sendDiscord(alert *Alert, config *DiscordChannel) error {
	if config == nil {
		return errors.New("discord channel not configured")
	}

	payload := map[string]any{
		"embeds": []map[string]any{{
			"title":       "\U0001F6A8 " + alert.Title,
			"description": alert.Description,
			"color":       severityColorInts[alert.Severity],
			"fields": []map[string]any{
				{"name": "Module", "value": strings.ToUpper(alert.Module), "inline": true},
				{"name": "Severity", "value": strings.ToUpper(string(alert.Severity)), "inline": true},
				{"name": "Type", "value": alert.Type, "inline": true},
			},
			"footer":    map[string]any{"text": notificationFooter},
			"timestamp": alert.CreatedAt.UTC().Format(time.RFC3339),
		}},
	}

	return m.post(config.WebhookURL, payload, nil)
}
