package alerting

import (
	"errors"
	"time"
)

// sendWebhook posts the alert inside the generic JSON envelope. The
// envelope shape is a published interop contract.
func (m *Manager) sendWebhook(alert *Alert, config *WebhookChannel) error {
	if config == nil {
		return errors.New("webhook channel not configured")
	}

	payload := map[string]any{
		"alert": map[string]any{
			"id":          alert.ID,
			"module":      alert.Module,
			"severity":    alert.Severity,
			"type":        alert.Type,
			"title":       alert.Title,
			"description": alert.Description,
			"context":     alert.Context,
			"createdAt":   alert.CreatedAt.UTC().Format(time.RFC3339),
		},
		"source":  "vajra-security",
		"version": "1.0",
	}

	return m.post(config.URL, payload, config.Headers)
}
