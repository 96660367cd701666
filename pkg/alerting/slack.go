package alerting

import (
	"errors"
	"strings"
)

// severityColors maps severities to the hex colors used by Slack
// attachments; Discord uses the same palette as integers.
var severityColors = map[Severity]string{
	SeverityCritical: "#dc3545",
	SeverityHigh:     "#fd7e14",
	SeverityMedium:   "#ffc107",
	SeverityLow:      "#17a2b8",
	SeverityInfo:     "#6c757d",
}

const notificationFooter = "Vajra Security Platform"

// sendSlack posts the alert as a Slack attachment. The payload shape is a
// published interop contract; field names and ordering must not change.
func (m *Manager) sendSlack(alert *Alert, config *SlackChannel) error {
	if config == nil {
		return errors.New("slack channel not configured")
	}

	payload := map[string]any{
		"channel": config.Channel,
		"attachments": []map[string]any{{
			"color": severityColors[alert.Severity],
			"title": "\U0001F6A8 " + alert.Title,
			"text":  alert.Description,
			"fields": []map[string]any{
				{"title": "Module", "value": strings.ToUpper(alert.Module), "short": true},
				{"title": "Severity", "value": strings.ToUpper(string(alert.Severity)), "short": true},
				{"title": "Type", "value": alert.Type, "short": true},
			},
			"footer": notificationFooter,
			"ts":     alert.CreatedAt.Unix(),
		}},
	}

	return m.post(config.WebhookURL, payload, nil)
}
