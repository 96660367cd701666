// Package api exposes the correlation engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shikhar1809/vajra-core/pkg/alerting"
	"github.com/shikhar1809/vajra-core/pkg/auth"
	"github.com/shikhar1809/vajra-core/pkg/graph"
	"github.com/shikhar1809/vajra-core/pkg/health"
	"github.com/shikhar1809/vajra-core/pkg/logging"
	"github.com/shikhar1809/vajra-core/pkg/metrics"
	"github.com/shikhar1809/vajra-core/pkg/vsi"
)

// Server wires the domain components into an HTTP surface
type Server struct {
	graph      *graph.Graph
	aggregator *vsi.Aggregator
	alerts     *alerting.Manager
	checker    *health.Checker
	jwtManager *auth.JWTManager
	logger     logging.Logger
	registry   *metrics.Registry
	startTime  time.Time
	version    string
}

// Option configures the server
type Option func(*Server)

// WithAuth enables JWT authentication on mutating endpoints
func WithAuth(m *auth.JWTManager) Option {
	return func(s *Server) { s.jwtManager = m }
}

// WithLogger sets the request logger
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the metrics registry and exposes /metrics
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// NewServer creates an API server over the given domain components
func NewServer(g *graph.Graph, agg *vsi.Aggregator, alerts *alerting.Manager, checker *health.Checker, opts ...Option) *Server {
	s := &Server{
		graph:      g,
		aggregator: agg,
		alerts:     alerts,
		checker:    checker,
		logger:     logging.NewNopLogger(),
		startTime:  time.Now(),
		version:    "1.0.0",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the full routing table wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health and metrics
	mux.HandleFunc("/healthz", s.handleLiveness)
	mux.HandleFunc("/readyz", s.handleReadiness)
	if s.registry != nil {
		mux.Handle("/metrics", s.registry.Handler())
	}

	// Ingestion
	mux.HandleFunc("/api/v1/entities", s.protected(s.handleEntities))
	mux.HandleFunc("/api/v1/relationships", s.protected(s.handleRelationships))
	mux.HandleFunc("/api/v1/metrics/", s.protected(s.handleModuleMetrics)) // /api/v1/metrics/{module}

	// Index
	mux.HandleFunc("/api/v1/index", s.handleIndex)
	mux.HandleFunc("/api/v1/index/summary", s.handleIndexSummary)

	// Graph queries
	mux.HandleFunc("/api/v1/graph/stats", s.handleGraphStats)
	mux.HandleFunc("/api/v1/graph/export", s.handleGraphExport)
	mux.HandleFunc("/api/v1/graph/attack-paths", s.handleAttackPaths)
	mux.HandleFunc("/api/v1/graph/toxic-combinations", s.handleToxicCombinations)
	mux.HandleFunc("/api/v1/graph/blast-radius", s.handleBlastRadius)

	// Alerts
	mux.HandleFunc("/api/v1/alerts", s.handleAlerts)
	mux.HandleFunc("/api/v1/alerts/pending-counts", s.handlePendingCounts)
	mux.HandleFunc("/api/v1/alerts/escalations/run", s.protected(s.handleRunEscalations))
	mux.HandleFunc("/api/v1/alerts/", s.handleAlertByID) // /api/v1/alerts/{id}/...

	var handler http.Handler = mux
	handler = s.metricsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	handler = s.requestIDMiddleware(handler)
	return handler
}

// protected wraps mutating handlers with JWT auth when configured
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	if s.jwtManager == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.jwtManager.Middleware(next).ServeHTTP(w, r)
	}
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	resp := s.checker.CheckLiveness()
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:    string(resp.Status),
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
	})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := s.checker.CheckReadiness()
	status := http.StatusOK
	if resp.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	checks := make(map[string]any, len(resp.Checks))
	for name, check := range resp.Checks {
		checks[name] = check
	}
	s.respondJSON(w, status, HealthResponse{
		Status:    string(resp.Status),
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Checks:    checks,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
