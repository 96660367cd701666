package alerting

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureServer records every request body it receives
type captureServer struct {
	mu      sync.Mutex
	bodies  [][]byte
	headers []http.Header
	status  int
	server  *httptest.Server
}

func newCaptureServer(t *testing.T, status int) *captureServer {
	t.Helper()
	cs := &captureServer{status: status}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		cs.bodies = append(cs.bodies, body)
		cs.headers = append(cs.headers, r.Header.Clone())
		cs.mu.Unlock()
		w.WriteHeader(cs.status)
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *captureServer) count() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.bodies)
}

func (cs *captureServer) payload(t *testing.T, i int) map[string]any {
	t.Helper()
	cs.mu.Lock()
	defer cs.mu.Unlock()
	require.Greater(t, len(cs.bodies), i, "expected a captured request")
	var payload map[string]any
	require.NoError(t, json.Unmarshal(cs.bodies[i], &payload))
	return payload
}

func TestDispatch_SlackPayload(t *testing.T) {
	cs := newCaptureServer(t, http.StatusOK)
	config := DefaultConfig()
	config.Channels.Slack = &SlackChannel{
		Enabled:     true,
		WebhookURL:  cs.server.URL,
		Channel:     "#security-alerts",
		MinSeverity: SeverityInfo,
	}
	m, _ := newTestManager(config)

	alert := m.Alert(testRequest(SeverityCritical))
	m.Drain()

	payload := cs.payload(t, 0)
	assert.Equal(t, "#security-alerts", payload["channel"])

	attachments := payload["attachments"].([]any)
	require.Len(t, attachments, 1)
	attachment := attachments[0].(map[string]any)
	assert.Equal(t, "#dc3545", attachment["color"])
	assert.Equal(t, "\U0001F6A8 DDoS attack in progress", attachment["title"])
	assert.Equal(t, "Traffic spike from 10.0.0.0/8", attachment["text"])
	assert.Equal(t, "Vajra Security Platform", attachment["footer"])
	assert.Equal(t, float64(alert.CreatedAt.Unix()), attachment["ts"])

	fields := attachment["fields"].([]any)
	require.Len(t, fields, 3)
	first := fields[0].(map[string]any)
	assert.Equal(t, "Module", first["title"])
	assert.Equal(t, "SHIELD", first["value"])
	assert.Equal(t, true, first["short"])
	second := fields[1].(map[string]any)
	assert.Equal(t, "CRITICAL", second["value"])
}

func TestDispatch_DiscordPayload(t *testing.T) {
	cs := newCaptureServer(t, http.StatusNoContent)
	config := DefaultConfig()
	config.Channels.Discord = &DiscordChannel{
		Enabled:     true,
		WebhookURL:  cs.server.URL,
		MinSeverity: SeverityInfo,
	}
	m, _ := newTestManager(config)

	alert := m.Alert(testRequest(SeverityHigh))
	m.Drain()

	payload := cs.payload(t, 0)
	embeds := payload["embeds"].([]any)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]any)
	assert.Equal(t, "\U0001F6A8 DDoS attack in progress", embed["title"])
	assert.Equal(t, float64(0xfd7e14), embed["color"])
	assert.Equal(t, alert.CreatedAt.UTC().Format(time.RFC3339), embed["timestamp"])

	footer := embed["footer"].(map[string]any)
	assert.Equal(t, "Vajra Security Platform", footer["text"])

	fields := embed["fields"].([]any)
	require.Len(t, fields, 3)
	first := fields[0].(map[string]any)
	assert.Equal(t, "Module", first["name"])
	assert.Equal(t, true, first["inline"])
}

func TestDispatch_WebhookEnvelope(t *testing.T) {
	cs := newCaptureServer(t, http.StatusOK)
	config := DefaultConfig()
	config.Channels.Webhook = &WebhookChannel{
		Enabled:     true,
		URL:         cs.server.URL,
		Headers:     map[string]string{"X-Api-Key": "secret-token"},
		MinSeverity: SeverityInfo,
	}
	m, _ := newTestManager(config)

	alert := m.Alert(testRequest(SeverityMedium))
	m.Drain()

	payload := cs.payload(t, 0)
	assert.Equal(t, "vajra-security", payload["source"])
	assert.Equal(t, "1.0", payload["version"])

	inner := payload["alert"].(map[string]any)
	assert.Equal(t, alert.ID, inner["id"])
	assert.Equal(t, "shield", inner["module"])
	assert.Equal(t, "medium", inner["severity"])
	assert.Equal(t, alert.CreatedAt.UTC().Format(time.RFC3339), inner["createdAt"])

	cs.mu.Lock()
	header := cs.headers[0]
	cs.mu.Unlock()
	assert.Equal(t, "secret-token", header.Get("X-Api-Key"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
}

func TestDispatch_MinSeverityFilter(t *testing.T) {
	cs := newCaptureServer(t, http.StatusOK)
	config := DefaultConfig()
	config.Channels.Slack = &SlackChannel{
		Enabled:     true,
		WebhookURL:  cs.server.URL,
		MinSeverity: SeverityHigh,
	}
	m, _ := newTestManager(config)

	m.Alert(testRequest(SeverityMedium))
	m.Drain()
	assert.Equal(t, 0, cs.count(), "medium must not pass a high filter")

	req := testRequest(SeverityCritical)
	req.Title = "Critical incident"
	m.Alert(req)
	m.Drain()
	assert.Equal(t, 1, cs.count())
}

func TestDispatch_DisabledChannelIgnored(t *testing.T) {
	cs := newCaptureServer(t, http.StatusOK)
	config := DefaultConfig()
	config.Channels.Slack = &SlackChannel{
		Enabled:     false,
		WebhookURL:  cs.server.URL,
		MinSeverity: SeverityInfo,
	}
	m, _ := newTestManager(config)

	m.Alert(testRequest(SeverityCritical))
	m.Drain()
	assert.Equal(t, 0, cs.count())
}

func TestDispatch_QuietHoursSuppression(t *testing.T) {
	cs := newCaptureServer(t, http.StatusOK)
	config := DefaultConfig()
	config.Channels.Slack = &SlackChannel{
		Enabled:     true,
		WebhookURL:  cs.server.URL,
		MinSeverity: SeverityInfo,
	}
	config.QuietHours = &QuietHours{
		Enabled:          true,
		Start:            "22:00",
		End:              "08:00",
		ExceptSeverities: []Severity{SeverityCritical},
	}
	m, clock := newTestManager(config)

	// 23:30, inside the wrap-around window
	clock.current = time.Date(2026, 1, 15, 23, 30, 0, 0, time.UTC)

	m.Alert(testRequest(SeverityHigh))
	m.Drain()
	assert.Equal(t, 0, cs.count(), "non-excepted severity is suppressed")

	req := testRequest(SeverityCritical)
	req.Title = "Critical at night"
	m.Alert(req)
	m.Drain()
	assert.Equal(t, 1, cs.count(), "excepted severity bypasses quiet hours")

	// 09:00 is outside the window
	clock.current = time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)
	morning := testRequest(SeverityLow)
	morning.Title = "Morning event"
	m.Alert(morning)
	m.Drain()
	assert.Equal(t, 2, cs.count())
}

func TestDispatch_RecordsOutcome(t *testing.T) {
	okServer := newCaptureServer(t, http.StatusOK)
	failServer := newCaptureServer(t, http.StatusInternalServerError)

	config := DefaultConfig()
	config.Channels.Slack = &SlackChannel{
		Enabled:     true,
		WebhookURL:  okServer.server.URL,
		MinSeverity: SeverityInfo,
	}
	config.Channels.Webhook = &WebhookChannel{
		Enabled:     true,
		URL:         failServer.server.URL,
		MinSeverity: SeverityInfo,
	}
	m, _ := newTestManager(config)

	alert := m.Alert(testRequest(SeverityHigh))
	m.Drain()

	stored := m.GetAlert(alert.ID)
	require.Len(t, stored.NotificationsSent, 2)

	outcomes := make(map[Channel]NotificationRecord)
	for _, record := range stored.NotificationsSent {
		outcomes[record.Channel] = record
	}
	assert.True(t, outcomes[ChannelSlack].Success)
	assert.Empty(t, outcomes[ChannelSlack].Error)
	assert.False(t, outcomes[ChannelWebhook].Success)
	assert.Contains(t, outcomes[ChannelWebhook].Error, "unexpected status 500")
}

func TestSendToChannel_EmailRecordsNothing(t *testing.T) {
	config := DefaultConfig()
	config.Channels.Email = &EmailChannel{Enabled: true, Recipients: []string{"ops@example.com"}}
	m, _ := newTestManager(config)

	alert := m.Alert(testRequest(SeverityHigh))
	m.Drain()

	m.sendToChannel(m.GetAlert(alert.ID), ChannelEmail)
	assert.Empty(t, m.GetAlert(alert.ID).NotificationsSent)
}

func TestEscalation_NotifiesChannelsBypassingFilter(t *testing.T) {
	cs := newCaptureServer(t, http.StatusOK)
	config := escalationConfig()
	config.Escalation.Levels[0].NotifyChannels = []string{"slack"}
	config.Channels.Slack = &SlackChannel{
		Enabled:     true,
		WebhookURL:  cs.server.URL,
		MinSeverity: SeverityCritical, // escalation sends regardless
	}
	m, clock := newTestManager(config)

	m.Alert(testRequest(SeverityLow))
	m.Drain()
	require.Equal(t, 0, cs.count(), "low severity filtered on initial dispatch")

	clock.advance(10 * time.Minute)
	m.CheckEscalations()
	assert.Equal(t, 1, cs.count(), "escalation dispatch ignores the severity filter")
}
