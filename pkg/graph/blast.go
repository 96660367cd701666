package graph

import (
	"fmt"
	"sort"
	"time"
)

// DefaultBlastRadiusDepth bounds blast-radius traversal when the caller
// passes no limit
const DefaultBlastRadiusDepth = 4

// CalculateBlastRadius walks outgoing edges level by level from the seed
// entity for at most maxDepth levels and reports the reachable set. The
// seed itself is always part of the affected set; riskScore is the mean
// risk over the whole set.
func (g *Graph) CalculateBlastRadius(entityID string, maxDepth int) BlastRadius {
	if maxDepth <= 0 {
		maxDepth = DefaultBlastRadiusDepth
	}

	start := time.Now()
	g.mu.RLock()

	affected := make(map[string]struct{})
	queue := []string{entityID}

	for depth := 0; len(queue) > 0 && depth < maxDepth; depth++ {
		levelSize := len(queue)
		for i := 0; i < levelSize; i++ {
			current := queue[0]
			queue = queue[1:]
			if _, ok := affected[current]; ok {
				continue
			}
			affected[current] = struct{}{}

			for _, rel := range g.outgoingLocked(current) {
				if _, ok := affected[rel.TargetID]; !ok {
					queue = append(queue, rel.TargetID)
				}
			}
		}
	}

	entities := make([]*Entity, 0, len(affected))
	var totalRisk float64
	for id := range affected {
		if e, ok := g.entities[id]; ok {
			entities = append(entities, e.Clone())
			totalRisk += e.RiskScore
		}
	}

	seedName := entityID
	if seed, ok := g.entities[entityID]; ok {
		seedName = seed.Name
	}

	g.mu.RUnlock()

	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })

	riskScore := totalRisk / float64(max(len(entities), 1))

	g.registry.RecordTraversal("blast_radius", time.Since(start))
	return BlastRadius{
		AffectedEntities: entities,
		RiskScore:        riskScore,
		Description:      fmt.Sprintf("Compromise of %s could affect %d entities", seedName, len(entities)),
	}
}
