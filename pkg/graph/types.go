package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EntityType classifies a tracked object in the security graph
type EntityType string

const (
	EntityIP            EntityType = "ip"
	EntityUser          EntityType = "user"
	EntityDevice        EntityType = "device"
	EntityVendor        EntityType = "vendor"
	EntityEmployee      EntityType = "employee"
	EntityAsset         EntityType = "asset"
	EntityVulnerability EntityType = "vulnerability"
	EntityThreat        EntityType = "threat"
	EntityCodeFile      EntityType = "code_file"
	EntityAPIEndpoint   EntityType = "api_endpoint"
	EntityDomain        EntityType = "domain"
)

// EntityTypes lists every valid entity type.
var EntityTypes = []EntityType{
	EntityIP, EntityUser, EntityDevice, EntityVendor, EntityEmployee,
	EntityAsset, EntityVulnerability, EntityThreat, EntityCodeFile,
	EntityAPIEndpoint, EntityDomain,
}

// RelationType classifies a directed edge between two entities
type RelationType string

const (
	RelAccessed         RelationType = "accessed"
	RelDependsOn        RelationType = "depends_on"
	RelCommunicatesWith RelationType = "communicates_with"
	RelHasVulnerability RelationType = "has_vulnerability"
	RelExploits         RelationType = "exploits"
	RelOwns             RelationType = "owns"
	RelManages          RelationType = "manages"
	RelTriggered        RelationType = "triggered"
	RelBlocked          RelationType = "blocked"
	RelSimilarTo        RelationType = "similar_to"
)

// RelationTypes lists every valid relationship type.
var RelationTypes = []RelationType{
	RelAccessed, RelDependsOn, RelCommunicatesWith, RelHasVulnerability,
	RelExploits, RelOwns, RelManages, RelTriggered, RelBlocked, RelSimilarTo,
}

// Entity is a node in the security graph
type Entity struct {
	ID         string         `json:"id"`
	Type       EntityType     `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
	RiskScore  float64        `json:"riskScore"`
	FirstSeen  time.Time      `json:"firstSeen"`
	LastSeen   time.Time      `json:"lastSeen"`
	Tags       []string       `json:"tags"`
}

// Clone returns a deep copy so callers never alias graph-owned state
func (e *Entity) Clone() *Entity {
	clone := &Entity{
		ID:         e.ID,
		Type:       e.Type,
		Name:       e.Name,
		Properties: make(map[string]any, len(e.Properties)),
		RiskScore:  e.RiskScore,
		FirstSeen:  e.FirstSeen,
		LastSeen:   e.LastSeen,
		Tags:       make([]string, len(e.Tags)),
	}
	for k, v := range e.Properties {
		clone.Properties[k] = v
	}
	copy(clone.Tags, e.Tags)
	return clone
}

// HasTag checks if the entity carries a specific tag
func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Relationship is a directed, typed, weighted edge between two entities
type Relationship struct {
	ID         string         `json:"id"`
	SourceID   string         `json:"sourceId"`
	TargetID   string         `json:"targetId"`
	Type       RelationType   `json:"type"`
	Properties map[string]any `json:"properties"`
	Weight     float64        `json:"weight"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Clone returns a deep copy of the relationship
func (r *Relationship) Clone() *Relationship {
	clone := &Relationship{
		ID:         r.ID,
		SourceID:   r.SourceID,
		TargetID:   r.TargetID,
		Type:       r.Type,
		Properties: make(map[string]any, len(r.Properties)),
		Weight:     r.Weight,
		CreatedAt:  r.CreatedAt,
	}
	for k, v := range r.Properties {
		clone.Properties[k] = v
	}
	return clone
}

// PathStep is one hop of a derived attack path
type PathStep struct {
	Entity           *Entity       `json:"entity"`
	Relationship     *Relationship `json:"relationship"`
	Action           string        `json:"action"`
	RiskContribution float64       `json:"riskContribution"`
}

// AttackPath is a derived chain of hops from a risky source to a target
type AttackPath struct {
	ID          string     `json:"id"`
	Steps       []PathStep `json:"steps"`
	TotalRisk   float64    `json:"totalRisk"`
	Description string     `json:"description"`
	Mitigations []string   `json:"mitigations"`
}

// Priority ranks a toxic combination
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// priorityOrder maps priorities to sort rank (critical first)
var priorityOrder = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// ToxicCombination is a co-occurrence of entities that amplifies risk
type ToxicCombination struct {
	Entities    []*Entity `json:"entities"`
	Risk        string    `json:"risk"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
}

// BlastRadius describes the reachable set from a compromised entity
type BlastRadius struct {
	AffectedEntities []*Entity `json:"affectedEntities"`
	RiskScore        float64   `json:"riskScore"`
	Description      string    `json:"description"`
}

// Stats is a read-only projection of graph size and risk
type Stats struct {
	TotalEntities      int                `json:"totalEntities"`
	TotalRelationships int                `json:"totalRelationships"`
	EntityCounts       map[EntityType]int `json:"entityCounts"`
	AvgRiskScore       float64            `json:"avgRiskScore"`
	HighRiskEntities   int                `json:"highRiskEntities"`
}

// VisNode is a node in the visualization export
type VisNode struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Type  EntityType `json:"type"`
	Risk  float64    `json:"risk"`
}

// VisEdge is an edge in the visualization export
type VisEdge struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Type   RelationType `json:"type"`
	Weight float64      `json:"weight"`
}

// VisExport is the node/edge list consumed by UI collaborators
type VisExport struct {
	Nodes []VisNode `json:"nodes"`
	Edges []VisEdge `json:"edges"`
}

// EntityID derives the stable natural-key id for (type, name).
// Identity is a pure function of the pair: the first 16 hex characters of
// SHA-256 over "type:name", reproducible across processes and languages.
func EntityID(entityType EntityType, name string) string {
	sum := sha256.Sum256([]byte(string(entityType) + ":" + name))
	return hex.EncodeToString(sum[:])[:16]
}

// RelationshipID derives the deterministic id for a (source, type, target) triple
func RelationshipID(sourceID string, relType RelationType, targetID string) string {
	return sourceID + "-" + string(relType) + "-" + targetID
}
