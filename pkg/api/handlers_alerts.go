package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shikhar1809/vajra-core/pkg/alerting"
	"github.com/shikhar1809/vajra-core/pkg/validation"
)

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.protected(s.handleRaiseAlert)(w, r)
	case http.MethodGet:
		s.handleListAlerts(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleRaiseAlert(w http.ResponseWriter, r *http.Request) {
	var req validation.AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidateAlertRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	alert := s.alerts.Alert(alerting.Request{
		Module:      req.Module,
		Severity:    alerting.Severity(req.Severity),
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Context:     req.Context,
	})
	s.respondJSON(w, http.StatusCreated, alert)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := alerting.Filter{}
	q := r.URL.Query()
	for _, status := range q["status"] {
		filter.Status = append(filter.Status, alerting.Status(status))
	}
	for _, severity := range q["severity"] {
		filter.Severity = append(filter.Severity, alerting.Severity(severity))
	}
	filter.Module = q["module"]
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	alerts := s.alerts.GetAlerts(filter)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (s *Server) handlePendingCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.alerts.GetPendingCounts())
}

func (s *Server) handleRunEscalations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.alerts.CheckEscalations()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// handleAlertByID routes /api/v1/alerts/{id} and
// /api/v1/alerts/{id}/{acknowledge|resolve|dismiss}
func (s *Server) handleAlertByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.SplitN(strings.TrimSuffix(rest, "/"), "/", 2)
	id := parts[0]
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Alert id is required")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		alert := s.alerts.GetAlert(id)
		if alert == nil {
			s.respondError(w, http.StatusNotFound, "Alert not found")
			return
		}
		s.respondJSON(w, http.StatusOK, alert)
		return
	}

	s.protected(func(w http.ResponseWriter, r *http.Request) {
		s.handleAlertAction(w, r, id, parts[1])
	})(w, r)
}

func (s *Server) handleAlertAction(w http.ResponseWriter, r *http.Request, id, action string) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AlertActionRequest
	if r.Body != nil {
		// Body is optional for these transitions
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.By == "" {
		req.By = r.Header.Get("X-Auth-Subject")
	}

	var ok bool
	switch action {
	case "acknowledge":
		ok = s.alerts.Acknowledge(id, req.By)
	case "resolve":
		ok = s.alerts.Resolve(id, req.By, req.Resolution)
	case "dismiss":
		ok = s.alerts.Dismiss(id)
	default:
		s.respondError(w, http.StatusNotFound, "Unknown alert action")
		return
	}

	if !ok {
		if s.alerts.GetAlert(id) == nil {
			s.respondError(w, http.StatusNotFound, "Alert not found")
			return
		}
		s.respondError(w, http.StatusConflict, "Alert is not in a state that allows this transition")
		return
	}
	s.respondJSON(w, http.StatusOK, s.alerts.GetAlert(id))
}
