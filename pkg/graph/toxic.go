package graph

import (
	"fmt"
	"sort"
	"time"
)

// Thresholds and hop bounds for the fixed toxic-combination patterns
const (
	vendorRiskThreshold = 60.0
	vendorAccessHops    = 3
	vulnRiskThreshold   = 70.0
	vulnExposureHops    = 2
	violationThreshold  = 2
	insiderHighBar      = 5
)

// FindToxicCombinations evaluates three fixed heuristics over the graph:
// high-risk vendors with a path to database/pii assets, exposed
// vulnerabilities reachable from public endpoints, and employees with
// repeated violations accessing sensitive assets. Results are ordered
// critical first.
func (g *Graph) FindToxicCombinations() []ToxicCombination {
	start := time.Now()
	g.mu.RLock()

	combinations := make([]ToxicCombination, 0)

	// Pattern 1: high-risk vendor with an access path to a sensitive asset
	vendors := g.entitiesByTypeLocked(EntityVendor)
	assets := g.entitiesByTypeLocked(EntityAsset)
	for _, vendor := range vendors {
		if vendor.RiskScore <= vendorRiskThreshold {
			continue
		}
		for _, asset := range assets {
			if !asset.HasTag("database") && !asset.HasTag("pii") {
				continue
			}
			if g.hasPathLocked(vendor.ID, asset.ID, vendorAccessHops) {
				combinations = append(combinations, ToxicCombination{
					Entities:    []*Entity{vendor, asset},
					Risk:        "Data breach via vendor",
					Description: fmt.Sprintf("High-risk vendor %q has access path to sensitive asset %q", vendor.Name, asset.Name),
					Priority:    PriorityHigh,
				})
			}
		}
	}

	// Pattern 2: exploitable vulnerability reachable from a public endpoint
	vulns := g.entitiesByTypeLocked(EntityVulnerability)
	endpoints := g.entitiesByTypeLocked(EntityAPIEndpoint)
	for _, vuln := range vulns {
		if vuln.RiskScore <= vulnRiskThreshold {
			continue
		}
		for _, endpoint := range endpoints {
			isPublic, _ := endpoint.Properties["isPublic"].(bool)
			if !isPublic && !endpoint.HasTag("external") {
				continue
			}
			if g.hasPathLocked(vuln.ID, endpoint.ID, vulnExposureHops) {
				combinations = append(combinations, ToxicCombination{
					Entities:    []*Entity{vuln, endpoint},
					Risk:        "Exploitable external vulnerability",
					Description: fmt.Sprintf("Critical vulnerability %q is reachable via public endpoint %q", vuln.Name, endpoint.Name),
					Priority:    PriorityCritical,
				})
			}
		}
	}

	// Pattern 3: employee with repeated violations touching sensitive assets
	employees := g.entitiesByTypeLocked(EntityEmployee)
	for _, employee := range employees {
		violations := propertyInt(employee.Properties, "violations")
		if violations <= violationThreshold {
			continue
		}

		sensitive := make([]*Entity, 0)
		for _, rel := range g.outgoingLocked(employee.ID) {
			if rel.Type != RelAccessed {
				continue
			}
			asset, ok := g.entities[rel.TargetID]
			if !ok {
				continue
			}
			if asset.HasTag("sensitive") || asset.HasTag("pii") {
				sensitive = append(sensitive, asset.Clone())
			}
		}
		if len(sensitive) == 0 {
			continue
		}

		priority := PriorityMedium
		if violations > insiderHighBar {
			priority = PriorityHigh
		}
		combinations = append(combinations, ToxicCombination{
			Entities:    append([]*Entity{employee}, sensitive...),
			Risk:        "Insider threat",
			Description: fmt.Sprintf("Employee %q with %d violations accessing sensitive assets", employee.Name, violations),
			Priority:    priority,
		})
	}

	g.mu.RUnlock()

	sort.SliceStable(combinations, func(i, j int) bool {
		return priorityOrder[combinations[i].Priority] < priorityOrder[combinations[j].Priority]
	})

	g.registry.RecordTraversal("toxic_combinations", time.Since(start))
	return combinations
}

// propertyInt reads a numeric property that may have arrived as any JSON
// number type.
func propertyInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
