package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shikhar1809/vajra-core/pkg/logging"
)

// dispatchAll fans an alert out to every enabled channel whose severity
// filter it meets. Channels run concurrently; one channel's failure never
// blocks or fails the others. During quiet hours dispatch is suppressed
// entirely unless the severity is in the exception list.
func (m *Manager) dispatchAll(alert *Alert) {
	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	if config.QuietHours.active(m.now()) && !config.QuietHours.contains(alert.Severity) {
		m.logger.Debug("dispatch suppressed by quiet hours", logging.AlertID(alert.ID))
		return
	}

	var wg sync.WaitGroup
	dispatch := func(channel Channel) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.sendToChannel(alert, channel)
		}()
	}

	if c := config.Channels.Slack; c != nil && c.Enabled && meetsMinSeverity(alert.Severity, c.MinSeverity) {
		dispatch(ChannelSlack)
	}
	if c := config.Channels.Discord; c != nil && c.Enabled && meetsMinSeverity(alert.Severity, c.MinSeverity) {
		dispatch(ChannelDiscord)
	}
	if c := config.Channels.Webhook; c != nil && c.Enabled && meetsMinSeverity(alert.Severity, c.MinSeverity) {
		dispatch(ChannelWebhook)
	}

	wg.Wait()
}

// sendToChannel performs one channel attempt and records the outcome on
// the alert's notification history. Errors are captured, never propagated.
func (m *Manager) sendToChannel(alert *Alert, channel Channel) {
	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	start := m.now()
	var err error

	switch channel {
	case ChannelSlack:
		err = m.sendSlack(alert, config.Channels.Slack)
	case ChannelDiscord:
		err = m.sendDiscord(alert, config.Channels.Discord)
	case ChannelWebhook:
		err = m.sendWebhook(alert, config.Channels.Webhook)
	default:
		// Email and SMS delivery require external services; nothing to
		// attempt, nothing to record.
		return
	}

	record := NotificationRecord{
		Channel: channel,
		SentAt:  start,
		Success: err == nil,
	}
	status := "ok"
	if err != nil {
		record.Error = err.Error()
		status = "error"
		m.logger.Warn("notification failed",
			logging.AlertID(alert.ID),
			logging.Channel(string(channel)),
			logging.Error(err))
	}

	m.mu.Lock()
	if stored, ok := m.alerts[alert.ID]; ok {
		stored.NotificationsSent = append(stored.NotificationsSent, record)
	}
	m.mu.Unlock()

	m.registry.RecordNotification(string(channel), status, time.Since(start))
}

// post sends a JSON payload with a bounded per-attempt timeout
func (m *Manager) post(url string, payload any, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), channelTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
