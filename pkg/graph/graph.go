// Package graph implements the cross-module security graph: a typed
// entity/relationship store with type and adjacency indexes, bounded
// traversal, toxic-combination matching and blast-radius analysis.
package graph

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shikhar1809/vajra-core/pkg/events"
	"github.com/shikhar1809/vajra-core/pkg/logging"
	"github.com/shikhar1809/vajra-core/pkg/metrics"
)

var (
	// ErrEntityNotFound signals a relationship endpoint that does not exist
	ErrEntityNotFound = errors.New("entity not found")
)

const highRiskThreshold = 70.0

// Graph is the in-memory security graph.
//
// A single RWMutex guards the primary maps and both secondary indexes so
// that a mutation is atomic from the outside: readers never observe an
// entity without its index entries or vice versa.
type Graph struct {
	entities      map[string]*Entity
	relationships map[string]*Relationship

	// Secondary indexes
	entitiesByType map[EntityType]map[string]struct{} // type -> entity ids
	outgoing       map[string]map[string]struct{}     // source id -> relationship ids
	incoming       map[string]map[string]struct{}     // target id -> relationship ids

	mu sync.RWMutex

	logger   logging.Logger
	registry *metrics.Registry
	bus      *events.Bus
}

// Option configures a Graph
type Option func(*Graph)

// WithLogger sets the structured logger
func WithLogger(l logging.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// WithMetrics sets the metrics registry
func WithMetrics(r *metrics.Registry) Option {
	return func(g *Graph) { g.registry = r }
}

// WithEventBus sets the change-event bus
func WithEventBus(b *events.Bus) Option {
	return func(g *Graph) { g.bus = b }
}

// New creates an empty security graph
func New(opts ...Option) *Graph {
	g := &Graph{
		entities:       make(map[string]*Entity),
		relationships:  make(map[string]*Relationship),
		entitiesByType: make(map[EntityType]map[string]struct{}, len(EntityTypes)),
		outgoing:       make(map[string]map[string]struct{}),
		incoming:       make(map[string]map[string]struct{}),
		logger:         logging.NewNopLogger(),
	}
	for _, t := range EntityTypes {
		g.entitiesByType[t] = make(map[string]struct{})
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// UpsertInput carries the caller-supplied fields for an entity upsert.
// RiskScore is a pointer so that omitting it preserves the stored score.
type UpsertInput struct {
	Type       EntityType
	Name       string
	Properties map[string]any
	RiskScore  *float64
	Tags       []string
}

// UpsertEntity creates the entity on first sight and merges on every later
// call: tags are unioned, properties shallow-merged with new values winning,
// riskScore replaced only when supplied, lastSeen refreshed. It never fails.
func (g *Graph) UpsertEntity(in UpsertInput) *Entity {
	id := EntityID(in.Type, in.Name)
	now := time.Now()

	g.mu.Lock()

	existing, ok := g.entities[id]
	if ok {
		for k, v := range in.Properties {
			existing.Properties[k] = v
		}
		if in.RiskScore != nil {
			existing.RiskScore = *in.RiskScore
		}
		existing.Tags = unionTags(existing.Tags, in.Tags)
		existing.LastSeen = now

		result := existing.Clone()
		g.mu.Unlock()

		g.registry.RecordGraphOperation("upsert_entity", "merged")
		g.publish(events.TopicEntityUpserted, id, result)
		return result
	}

	entity := &Entity{
		ID:         id,
		Type:       in.Type,
		Name:       in.Name,
		Properties: make(map[string]any, len(in.Properties)),
		FirstSeen:  now,
		LastSeen:   now,
		Tags:       unionTags(nil, in.Tags),
	}
	for k, v := range in.Properties {
		entity.Properties[k] = v
	}
	if in.RiskScore != nil {
		entity.RiskScore = *in.RiskScore
	}

	g.entities[id] = entity
	if g.entitiesByType[in.Type] == nil {
		g.entitiesByType[in.Type] = make(map[string]struct{})
	}
	g.entitiesByType[in.Type][id] = struct{}{}

	entityCount := len(g.entities)
	relCount := len(g.relationships)
	result := entity.Clone()
	g.mu.Unlock()

	g.registry.RecordGraphOperation("upsert_entity", "created")
	g.registry.UpdateGraphCounts(entityCount, relCount)
	g.logger.Debug("entity created",
		logging.EntityID(id),
		logging.String("type", string(in.Type)))
	g.publish(events.TopicEntityUpserted, id, result)
	return result
}

// AddRelationship creates a directed edge between two existing entities.
// Re-adding the same (source, type, target) triple replaces the stored
// relationship wholesale (last-write-wins; weights are not accumulated).
// Returns ErrEntityNotFound if either endpoint is absent.
func (g *Graph) AddRelationship(sourceID, targetID string, relType RelationType, properties map[string]any, weight float64) (*Relationship, error) {
	g.mu.Lock()

	if _, ok := g.entities[sourceID]; !ok {
		g.mu.Unlock()
		g.registry.RecordGraphOperation("add_relationship", "not_found")
		return nil, ErrEntityNotFound
	}
	if _, ok := g.entities[targetID]; !ok {
		g.mu.Unlock()
		g.registry.RecordGraphOperation("add_relationship", "not_found")
		return nil, ErrEntityNotFound
	}

	id := RelationshipID(sourceID, relType, targetID)
	rel := &Relationship{
		ID:         id,
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       relType,
		Properties: make(map[string]any, len(properties)),
		Weight:     weight,
		CreatedAt:  time.Now(),
	}
	for k, v := range properties {
		rel.Properties[k] = v
	}

	g.relationships[id] = rel

	if g.outgoing[sourceID] == nil {
		g.outgoing[sourceID] = make(map[string]struct{})
	}
	if g.incoming[targetID] == nil {
		g.incoming[targetID] = make(map[string]struct{})
	}
	g.outgoing[sourceID][id] = struct{}{}
	g.incoming[targetID][id] = struct{}{}

	entityCount := len(g.entities)
	relCount := len(g.relationships)
	result := rel.Clone()
	g.mu.Unlock()

	g.registry.RecordGraphOperation("add_relationship", "ok")
	g.registry.UpdateGraphCounts(entityCount, relCount)
	g.publish(events.TopicRelationshipAdded, id, result)
	return result, nil
}

// GetEntity returns the entity with the given id, or nil if unknown
func (g *Graph) GetEntity(id string) *Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entity, ok := g.entities[id]
	if !ok {
		return nil
	}
	return entity.Clone()
}

// GetEntitiesByType returns all entities of a type. Unknown types yield
// an empty slice, never an error.
func (g *Graph) GetEntitiesByType(entityType EntityType) []*Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entitiesByTypeLocked(entityType)
}

func (g *Graph) entitiesByTypeLocked(entityType EntityType) []*Entity {
	ids := g.entitiesByType[entityType]
	result := make([]*Entity, 0, len(ids))
	for id := range ids {
		if e, ok := g.entities[id]; ok {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetOutgoingRelationships returns edges whose source is the given entity
func (g *Graph) GetOutgoingRelationships(entityID string) []*Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rels := g.outgoingLocked(entityID)
	result := make([]*Relationship, len(rels))
	for i, r := range rels {
		result[i] = r.Clone()
	}
	return result
}

// GetIncomingRelationships returns edges whose target is the given entity
func (g *Graph) GetIncomingRelationships(entityID string) []*Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := g.incoming[entityID]
	result := make([]*Relationship, 0, len(ids))
	for id := range ids {
		if r, ok := g.relationships[id]; ok {
			result = append(result, r.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// outgoingLocked returns graph-owned relationship pointers; callers must
// hold at least a read lock and must not retain the pointers.
func (g *Graph) outgoingLocked(entityID string) []*Relationship {
	ids := g.outgoing[entityID]
	result := make([]*Relationship, 0, len(ids))
	for id := range ids {
		if r, ok := g.relationships[id]; ok {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Stats returns counts and aggregate risk over the whole graph
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := Stats{
		TotalEntities:      len(g.entities),
		TotalRelationships: len(g.relationships),
		EntityCounts:       make(map[EntityType]int, len(g.entitiesByType)),
	}

	for t, ids := range g.entitiesByType {
		stats.EntityCounts[t] = len(ids)
	}

	var totalRisk float64
	for _, e := range g.entities {
		totalRisk += e.RiskScore
		if e.RiskScore > highRiskThreshold {
			stats.HighRiskEntities++
		}
	}
	if len(g.entities) > 0 {
		stats.AvgRiskScore = totalRisk / float64(len(g.entities))
	}

	return stats
}

// ExportForVisualization returns the flat node/edge projection for a UI
func (g *Graph) ExportForVisualization() VisExport {
	g.mu.RLock()
	defer g.mu.RUnlock()

	export := VisExport{
		Nodes: make([]VisNode, 0, len(g.entities)),
		Edges: make([]VisEdge, 0, len(g.relationships)),
	}

	for _, e := range g.entities {
		export.Nodes = append(export.Nodes, VisNode{
			ID:    e.ID,
			Label: e.Name,
			Type:  e.Type,
			Risk:  e.RiskScore,
		})
	}
	for _, r := range g.relationships {
		export.Edges = append(export.Edges, VisEdge{
			Source: r.SourceID,
			Target: r.TargetID,
			Type:   r.Type,
			Weight: r.Weight,
		})
	}

	sort.Slice(export.Nodes, func(i, j int) bool { return export.Nodes[i].ID < export.Nodes[j].ID })
	sort.Slice(export.Edges, func(i, j int) bool {
		if export.Edges[i].Source != export.Edges[j].Source {
			return export.Edges[i].Source < export.Edges[j].Source
		}
		return export.Edges[i].Target < export.Edges[j].Target
	})

	return export
}

func (g *Graph) publish(topic, subject string, payload any) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(events.ChangeEvent{
		Topic:   topic,
		Subject: subject,
		Payload: payload,
	})
}

func unionTags(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	result := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			result = append(result, t)
		}
	}
	for _, t := range incoming {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			result = append(result, t)
		}
	}
	return result
}
