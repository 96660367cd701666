package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shikhar1809/vajra-core/pkg/graph"
	"github.com/shikhar1809/vajra-core/pkg/validation"
)

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUpsertEntity(w, r)
	case http.MethodGet:
		s.handleListEntities(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleUpsertEntity(w http.ResponseWriter, r *http.Request) {
	var req validation.EntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidateEntityRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing := s.graph.GetEntity(graph.EntityID(graph.EntityType(req.Type), req.Name))
	entity := s.graph.UpsertEntity(graph.UpsertInput{
		Type:       graph.EntityType(req.Type),
		Name:       req.Name,
		Properties: req.Properties,
		RiskScore:  req.RiskScore,
		Tags:       req.Tags,
	})

	status := http.StatusOK
	if existing == nil {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, EntityResponse{
		ID:        entity.ID,
		Created:   existing == nil,
		FirstSeen: entity.FirstSeen.UTC().Format(time.RFC3339),
		LastSeen:  entity.LastSeen.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	typeParam := r.URL.Query().Get("type")
	if typeParam == "" {
		s.respondError(w, http.StatusBadRequest, "Query parameter 'type' is required")
		return
	}
	entities := s.graph.GetEntitiesByType(graph.EntityType(typeParam))
	s.respondJSON(w, http.StatusOK, map[string]any{
		"entities": entities,
		"count":    len(entities),
	})
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req validation.RelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidateRelationshipRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	weight := 1.0
	if req.Weight != nil {
		weight = *req.Weight
	}
	rel, err := s.graph.AddRelationship(req.SourceID, req.TargetID, graph.RelationType(req.Type), req.Properties, weight)
	if err != nil {
		if errors.Is(err, graph.ErrEntityNotFound) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "Adding relationship failed")
		return
	}

	s.respondJSON(w, http.StatusCreated, RelationshipResponse{
		ID:     rel.ID,
		Source: rel.SourceID,
		Target: rel.TargetID,
		Type:   string(rel.Type),
		Weight: rel.Weight,
	})
}

func (s *Server) handleGraphStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.graph.Stats())
}

func (s *Server) handleGraphExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.graph.ExportForVisualization())
}

func (s *Server) handleAttackPaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	target := r.URL.Query().Get("target")
	if target == "" {
		s.respondError(w, http.StatusBadRequest, "Query parameter 'target' is required")
		return
	}
	if s.graph.GetEntity(target) == nil {
		s.respondError(w, http.StatusNotFound, "Entity not found")
		return
	}
	maxDepth, ok := s.depthParam(w, r, graph.DefaultMaxPathDepth)
	if !ok {
		return
	}

	start := time.Now()
	paths := s.graph.FindAttackPaths(target, maxDepth)
	s.registry.RecordTraversal("attack_paths", time.Since(start))

	s.respondJSON(w, http.StatusOK, map[string]any{
		"target": target,
		"paths":  paths,
		"count":  len(paths),
	})
}

func (s *Server) handleToxicCombinations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	start := time.Now()
	combos := s.graph.FindToxicCombinations()
	s.registry.RecordTraversal("toxic_combinations", time.Since(start))

	s.respondJSON(w, http.StatusOK, map[string]any{
		"combinations": combos,
		"count":        len(combos),
	})
}

func (s *Server) handleBlastRadius(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	entityID := r.URL.Query().Get("entity")
	if entityID == "" {
		s.respondError(w, http.StatusBadRequest, "Query parameter 'entity' is required")
		return
	}
	if s.graph.GetEntity(entityID) == nil {
		s.respondError(w, http.StatusNotFound, "Entity not found")
		return
	}
	maxDepth, ok := s.depthParam(w, r, graph.DefaultBlastRadiusDepth)
	if !ok {
		return
	}

	start := time.Now()
	radius := s.graph.CalculateBlastRadius(entityID, maxDepth)
	s.registry.RecordTraversal("blast_radius", time.Since(start))

	s.respondJSON(w, http.StatusOK, radius)
}

// depthParam parses the optional maxDepth query parameter. On a bad
// value it writes the error response and reports false.
func (s *Server) depthParam(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("maxDepth")
	if raw == "" {
		return fallback, true
	}
	depth, err := strconv.Atoi(raw)
	if err != nil || depth < 1 {
		s.respondError(w, http.StatusBadRequest, "maxDepth must be a positive integer")
		return 0, false
	}
	return depth, true
}
