package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikhar1809/vajra-core/pkg/alerting"
	"github.com/shikhar1809/vajra-core/pkg/auth"
	"github.com/shikhar1809/vajra-core/pkg/graph"
	"github.com/shikhar1809/vajra-core/pkg/health"
	"github.com/shikhar1809/vajra-core/pkg/vsi"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	g := graph.New()
	manager := alerting.NewManager(alerting.DefaultConfig())
	aggregator := vsi.NewAggregator(g)
	s := NewServer(g, aggregator, manager, health.NewChecker(), opts...)
	return s, s.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), "body: %s", rec.Body.String())
}

func TestUpsertEntity_CreateThenUpdate(t *testing.T) {
	_, handler := newTestServer(t)

	body := map[string]any{
		"type":      "asset",
		"name":      "web-01",
		"riskScore": 40.0,
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/entities", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created EntityResponse
	decodeInto(t, rec, &created)
	assert.True(t, created.Created)
	assert.NotEmpty(t, created.ID)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/entities", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated EntityResponse
	decodeInto(t, rec, &updated)
	assert.False(t, updated.Created)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpsertEntity_ValidationFailure(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/entities", map[string]any{
		"type": "asset",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	decodeInto(t, rec, &errResp)
	assert.Equal(t, http.StatusBadRequest, errResp.Code)
	assert.NotEmpty(t, errResp.Message)
}

func TestListEntities(t *testing.T) {
	_, handler := newTestServer(t)

	doJSON(t, handler, http.MethodPost, "/api/v1/entities", map[string]any{"type": "asset", "name": "web-01"})
	doJSON(t, handler, http.MethodPost, "/api/v1/entities", map[string]any{"type": "asset", "name": "web-02"})
	doJSON(t, handler, http.MethodPost, "/api/v1/entities", map[string]any{"type": "vendor", "name": "acme"})

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/entities?type=asset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	decodeInto(t, rec, &resp)
	assert.Equal(t, 2, resp.Count)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/entities", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddRelationship(t *testing.T) {
	s, handler := newTestServer(t)

	src := s.graph.UpsertEntity(graph.UpsertInput{Type: graph.EntityIP, Name: "10.0.0.1"})
	dst := s.graph.UpsertEntity(graph.UpsertInput{Type: graph.EntityAsset, Name: "web-01"})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/relationships", map[string]any{
		"sourceId": src.ID,
		"targetId": dst.ID,
		"type":     "accessed",
		"weight":   2.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp RelationshipResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, src.ID, resp.Source)
	assert.Equal(t, dst.ID, resp.Target)
	assert.Equal(t, 2.5, resp.Weight)
}

func TestAddRelationship_MissingEndpoint(t *testing.T) {
	s, handler := newTestServer(t)

	src := s.graph.UpsertEntity(graph.UpsertInput{Type: graph.EntityIP, Name: "10.0.0.1"})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/relationships", map[string]any{
		"sourceId": src.ID,
		"targetId": "nonexistent",
		"type":     "accessed",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAttackPaths_Errors(t *testing.T) {
	s, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/graph/attack-paths", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/graph/attack-paths?target=missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	e := s.graph.UpsertEntity(graph.UpsertInput{Type: graph.EntityAsset, Name: "db-01"})
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/graph/attack-paths?target="+e.ID+"&maxDepth=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/graph/attack-paths?target="+e.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Target string `json:"target"`
		Count  int    `json:"count"`
	}
	decodeInto(t, rec, &resp)
	assert.Equal(t, e.ID, resp.Target)
	assert.Equal(t, 0, resp.Count)
}

func TestBlastRadius(t *testing.T) {
	s, handler := newTestServer(t)

	a := s.graph.UpsertEntity(graph.UpsertInput{Type: graph.EntityAsset, Name: "a"})
	b := s.graph.UpsertEntity(graph.UpsertInput{Type: graph.EntityAsset, Name: "b"})
	_, err := s.graph.AddRelationship(a.ID, b.ID, graph.RelCommunicatesWith, nil, 1.0)
	require.NoError(t, err)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/graph/blast-radius?entity="+a.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp graph.BlastRadius
	decodeInto(t, rec, &resp)
	assert.Len(t, resp.AffectedEntities, 2)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/graph/blast-radius?entity=missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModuleMetricsIngest(t *testing.T) {
	s, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/metrics/shield", map[string]any{
		"blockedThreats": 150,
		"ddosAttacks":    0,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp map[string]string
	decodeInto(t, rec, &resp)
	assert.Equal(t, "shield", resp["module"])
	assert.Equal(t, "accepted", resp["status"])

	index := s.aggregator.Calculate()
	assert.Equal(t, 90.0, index.ModuleScores[vsi.ModuleShield].Score)
}

func TestModuleMetricsIngest_UnknownModule(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/metrics/falcon", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexEndpoints(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/index", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var index vsi.Index
	decodeInto(t, rec, &index)
	assert.Equal(t, 75, index.OverallScore)
	assert.Len(t, index.ModuleScores, 4)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/index/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary vsi.ExecutiveSummary
	decodeInto(t, rec, &summary)
	assert.NotEmpty(t, summary.Headline)
}

func TestAlertLifecycleOverHTTP(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/alerts", map[string]any{
		"module":   "shield",
		"severity": "critical",
		"type":     "ddos",
		"title":    "DDoS attack in progress",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var alert alerting.Alert
	decodeInto(t, rec, &alert)
	require.NotEmpty(t, alert.ID)
	assert.Equal(t, alerting.StatusPending, alert.Status)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/alerts/"+alert.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/acknowledge", AlertActionRequest{By: "operator"})
	require.Equal(t, http.StatusOK, rec.Code)

	var acked alerting.Alert
	decodeInto(t, rec, &acked)
	assert.Equal(t, alerting.StatusAcknowledged, acked.Status)
	assert.Equal(t, "operator", acked.AcknowledgedBy)

	// Second acknowledge conflicts
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/acknowledge", AlertActionRequest{By: "operator"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/resolve", AlertActionRequest{By: "operator", Resolution: "mitigated"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAlertByID_NotFoundAndUnknownAction(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/alerts/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/alerts/nope/acknowledge", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/alerts", map[string]any{
		"module": "aegis", "severity": "low", "type": "vuln", "title": "Outdated dependency",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var alert alerting.Alert
	decodeInto(t, rec, &alert)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/explode", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAlertsFilters(t *testing.T) {
	_, handler := newTestServer(t)

	for _, raw := range []map[string]any{
		{"module": "shield", "severity": "critical", "type": "ddos", "title": "DDoS"},
		{"module": "aegis", "severity": "low", "type": "vuln", "title": "Stale dep"},
	} {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/alerts", raw)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/alerts?severity=critical", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count  int              `json:"count"`
		Alerts []alerting.Alert `json:"alerts"`
	}
	decodeInto(t, rec, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "shield", resp.Alerts[0].Module)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/alerts?limit=banana", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPendingCounts(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/alerts/pending-counts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var counts map[string]int
	decodeInto(t, rec, &counts)
	for _, sev := range []string{"critical", "high", "medium", "low", "info"} {
		assert.Contains(t, counts, sev)
	}
}

func TestRunEscalations(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/alerts/escalations/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	decodeInto(t, rec, &resp)
	assert.Equal(t, "completed", resp["status"])
}

func TestHealthEndpoints(t *testing.T) {
	checker := health.NewChecker()
	g := graph.New()
	s := NewServer(g, vsi.NewAggregator(g), alerting.NewManager(alerting.DefaultConfig()), checker)
	handler := s.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var live HealthResponse
	decodeInto(t, rec, &live)
	assert.Equal(t, "healthy", live.Status)
	assert.Equal(t, "1.0.0", live.Version)

	checker.RegisterReadinessCheck("store", func() health.Check {
		return health.Check{Status: health.StatusUnhealthy, Message: "down"}
	})
	rec = doJSON(t, handler, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	mgr, err := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	_, handler := newTestServer(t, WithAuth(mgr))

	body := map[string]any{"type": "asset", "name": "web-01"}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/entities", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Read endpoints stay open
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/index", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := mgr.GenerateToken("collector-1", auth.RoleIngest)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entities", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusCreated, recorder.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/index", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/index", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}
