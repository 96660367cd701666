package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shikhar1809/vajra-core/pkg/vsi"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.aggregator.Calculate())
}

func (s *Server) handleIndexSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.aggregator.GetExecutiveSummary())
}

// handleModuleMetrics ingests a metrics snapshot for one module,
// routed as /api/v1/metrics/{module}
func (s *Server) handleModuleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	module := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/metrics/"), "/")
	switch vsi.Module(module) {
	case vsi.ModuleShield:
		var m vsi.ShieldMetrics
		if !s.decodeBody(w, r, &m) {
			return
		}
		s.aggregator.UpdateShield(m)
	case vsi.ModuleScout:
		var m vsi.ScoutMetrics
		if !s.decodeBody(w, r, &m) {
			return
		}
		s.aggregator.UpdateScout(m)
	case vsi.ModuleSentry:
		var m vsi.SentryMetrics
		if !s.decodeBody(w, r, &m) {
			return
		}
		s.aggregator.UpdateSentry(m)
	case vsi.ModuleAegis:
		var m vsi.AegisMetrics
		if !s.decodeBody(w, r, &m) {
			return
		}
		s.aggregator.UpdateAegis(m)
	default:
		s.respondError(w, http.StatusNotFound, "Unknown module")
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"module": module,
		"status": "accepted",
	})
}

// decodeBody decodes a JSON body, writing the error response on failure
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
