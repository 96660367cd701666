package graph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// riskySourceThreshold selects which ip entities count as attack sources
const riskySourceThreshold = 50.0

// DefaultMaxPathDepth bounds attack-path BFS when the caller passes no limit
const DefaultMaxPathDepth = 5

type bfsEntry struct {
	id   string
	path []string
}

// FindAttackPaths discovers bounded paths from every high-risk ip entity
// (riskScore > 50) to the target and ranks them by risk.
//
// Ordering is deterministic: TotalRisk descending, then fewer steps (a
// shorter path is a more direct attack), then the first step's entity id.
func (g *Graph) FindAttackPaths(targetID string, maxDepth int) []AttackPath {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxPathDepth
	}

	start := time.Now()
	g.mu.RLock()

	paths := make([]AttackPath, 0)
	if _, ok := g.entities[targetID]; !ok {
		g.mu.RUnlock()
		return paths
	}

	sources := g.entitiesByTypeLocked(EntityIP)
	for _, source := range sources {
		if source.RiskScore <= riskySourceThreshold {
			continue
		}
		nodeIDs := g.findPathLocked(source.ID, targetID, maxDepth)
		if len(nodeIDs) == 0 {
			continue
		}
		attackPath := g.buildAttackPathLocked(nodeIDs)
		if attackPath.TotalRisk > 0 {
			paths = append(paths, attackPath)
		}
	}

	g.mu.RUnlock()

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].TotalRisk != paths[j].TotalRisk {
			return paths[i].TotalRisk > paths[j].TotalRisk
		}
		if len(paths[i].Steps) != len(paths[j].Steps) {
			return len(paths[i].Steps) < len(paths[j].Steps)
		}
		return firstStepID(paths[i]) < firstStepID(paths[j])
	})

	g.registry.RecordTraversal("attack_paths", time.Since(start))
	return paths
}

func firstStepID(p AttackPath) string {
	if len(p.Steps) == 0 {
		return ""
	}
	return p.Steps[0].Entity.ID
}

// findPathLocked runs a BFS from source to target with a depth cutoff.
// Returns the node ids along the first path found, or nil. Caller must
// hold at least a read lock.
func (g *Graph) findPathLocked(sourceID, targetID string, maxDepth int) []string {
	if sourceID == targetID {
		return []string{sourceID}
	}

	visited := make(map[string]struct{})
	queue := []bfsEntry{{id: sourceID, path: []string{sourceID}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if len(current.path) > maxDepth {
			continue
		}
		if _, ok := visited[current.id]; ok {
			continue
		}
		visited[current.id] = struct{}{}

		for _, rel := range g.outgoingLocked(current.id) {
			if rel.TargetID == targetID {
				return append(append([]string{}, current.path...), rel.TargetID)
			}
			if _, ok := visited[rel.TargetID]; !ok {
				next := append(append([]string{}, current.path...), rel.TargetID)
				queue = append(queue, bfsEntry{id: rel.TargetID, path: next})
			}
		}
	}

	return nil
}

// hasPathLocked reports whether target is reachable from source within
// maxDepth hops. Caller must hold at least a read lock.
func (g *Graph) hasPathLocked(sourceID, targetID string, maxDepth int) bool {
	return len(g.findPathLocked(sourceID, targetID, maxDepth)) > 0
}

// buildAttackPathLocked converts a node id chain into an AttackPath,
// summing entity.riskScore x relationship.weight per hop plus the final
// entity's own risk. Caller must hold at least a read lock.
func (g *Graph) buildAttackPathLocked(nodeIDs []string) AttackPath {
	steps := make([]PathStep, 0, len(nodeIDs)-1)
	var totalRisk float64

	for i := 0; i < len(nodeIDs)-1; i++ {
		entity, ok := g.entities[nodeIDs[i]]
		if !ok {
			continue
		}
		var hop *Relationship
		for _, rel := range g.outgoingLocked(nodeIDs[i]) {
			if rel.TargetID == nodeIDs[i+1] {
				hop = rel
				break
			}
		}
		if hop == nil {
			continue
		}

		contribution := entity.RiskScore * hop.Weight
		totalRisk += contribution
		steps = append(steps, PathStep{
			Entity:           entity.Clone(),
			Relationship:     hop.Clone(),
			Action:           actionDescription(hop.Type),
			RiskContribution: contribution,
		})
	}

	if last, ok := g.entities[nodeIDs[len(nodeIDs)-1]]; ok {
		totalRisk += last.RiskScore
	}

	return AttackPath{
		ID:          uuid.NewString(),
		Steps:       steps,
		TotalRisk:   totalRisk,
		Description: pathDescription(steps),
		Mitigations: suggestMitigations(steps),
	}
}

// actionDescription maps a relationship type to the attacker action label
func actionDescription(relType RelationType) string {
	switch relType {
	case RelAccessed:
		return "Gain access to"
	case RelDependsOn:
		return "Exploit dependency"
	case RelCommunicatesWith:
		return "Lateral movement to"
	case RelHasVulnerability:
		return "Exploit vulnerability in"
	case RelExploits:
		return "Execute exploit against"
	case RelOwns:
		return "Compromise owned"
	case RelManages:
		return "Abuse management access to"
	case RelTriggered:
		return "Trigger action on"
	case RelBlocked:
		return "Attempt blocked at"
	case RelSimilarTo:
		return "Pivot to similar"
	default:
		return "Interact with"
	}
}

func pathDescription(steps []PathStep) string {
	if len(steps) == 0 {
		return "No attack path"
	}
	parts := make([]string, len(steps))
	for i, step := range steps {
		parts[i] = fmt.Sprintf("%d. %s %s", i+1, step.Action, step.Entity.Name)
	}
	return strings.Join(parts, " -> ")
}

// suggestMitigations derives deduplicated remediation hints from path hops
func suggestMitigations(steps []PathStep) []string {
	seen := make(map[string]struct{})
	mitigations := make([]string, 0)

	add := func(m string) {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			mitigations = append(mitigations, m)
		}
	}

	for _, step := range steps {
		switch step.Relationship.Type {
		case RelHasVulnerability:
			add(fmt.Sprintf("Patch vulnerability in %s", step.Entity.Name))
		case RelAccessed:
			add(fmt.Sprintf("Review access controls for %s", step.Entity.Name))
		case RelCommunicatesWith:
			add("Implement network segmentation")
		case RelExploits:
			add(fmt.Sprintf("Enable exploit protection for %s", step.Entity.Name))
		}
	}

	return mitigations
}
