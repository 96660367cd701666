package graph

import (
	"strings"
	"testing"
)

// buildAttackScenario wires two risky ips toward a database asset:
//
//	ip1 (60) -accessed-> srv (40) -communicates_with-> db (50)
//	ip2 (90) -accessed(w=2)-> db
func buildAttackScenario(t *testing.T) (*Graph, *Entity, *Entity, *Entity) {
	t.Helper()
	g := New()

	ip1 := g.UpsertEntity(UpsertInput{Type: EntityIP, Name: "10.0.0.1", RiskScore: riskPtr(60)})
	ip2 := g.UpsertEntity(UpsertInput{Type: EntityIP, Name: "10.0.0.2", RiskScore: riskPtr(90)})
	srv := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "app-server", RiskScore: riskPtr(40)})
	db := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "db-prod", RiskScore: riskPtr(50)})

	mustAddRel(t, g, ip1.ID, srv.ID, RelAccessed, 1.0)
	mustAddRel(t, g, srv.ID, db.ID, RelCommunicatesWith, 1.0)
	mustAddRel(t, g, ip2.ID, db.ID, RelAccessed, 2.0)

	return g, ip1, ip2, db
}

func mustAddRel(t *testing.T, g *Graph, source, target string, relType RelationType, weight float64) {
	t.Helper()
	if _, err := g.AddRelationship(source, target, relType, nil, weight); err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}
}

func TestFindAttackPaths_RankedByRisk(t *testing.T) {
	g, _, ip2, db := buildAttackScenario(t)

	paths := g.FindAttackPaths(db.ID, 0)
	if len(paths) != 2 {
		t.Fatalf("Expected 2 attack paths, got %d", len(paths))
	}

	// ip2: 90*2 + 50 = 230, ip1: 60*1 + 40*1 + 50 = 150
	if paths[0].TotalRisk != 230 {
		t.Errorf("Expected top path risk 230, got %f", paths[0].TotalRisk)
	}
	if paths[1].TotalRisk != 150 {
		t.Errorf("Expected second path risk 150, got %f", paths[1].TotalRisk)
	}
	if paths[0].Steps[0].Entity.ID != ip2.ID {
		t.Errorf("Expected highest-risk path to start at %q", ip2.ID)
	}
	if paths[0].ID == "" || paths[0].ID == paths[1].ID {
		t.Error("Expected unique non-empty path ids")
	}
}

func TestFindAttackPaths_StepDetail(t *testing.T) {
	g, _, ip2, db := buildAttackScenario(t)

	paths := g.FindAttackPaths(db.ID, 0)
	direct := paths[0]
	if len(direct.Steps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(direct.Steps))
	}

	step := direct.Steps[0]
	if step.Action != "Gain access to" {
		t.Errorf("Expected accessed action label, got %q", step.Action)
	}
	if step.RiskContribution != 180 {
		t.Errorf("Expected contribution 90*2=180, got %f", step.RiskContribution)
	}
	if direct.Description != "1. Gain access to "+ip2.Name {
		t.Errorf("Unexpected description: %q", direct.Description)
	}
	if len(direct.Mitigations) != 1 || !strings.Contains(direct.Mitigations[0], "access controls") {
		t.Errorf("Expected access-control mitigation, got %v", direct.Mitigations)
	}
}

func TestFindAttackPaths_DepthCutoff(t *testing.T) {
	g, _, _, db := buildAttackScenario(t)

	// Depth 1 only reaches the direct ip2 -> db edge
	paths := g.FindAttackPaths(db.ID, 1)
	if len(paths) != 1 {
		t.Fatalf("Expected 1 path within depth 1, got %d", len(paths))
	}
	if len(paths[0].Steps) != 1 {
		t.Errorf("Expected a single hop, got %d", len(paths[0].Steps))
	}
}

func TestFindAttackPaths_LowRiskSourceIgnored(t *testing.T) {
	g := New()
	ip := g.UpsertEntity(UpsertInput{Type: EntityIP, Name: "10.0.0.1", RiskScore: riskPtr(50)})
	db := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "db-prod", RiskScore: riskPtr(50)})
	mustAddRel(t, g, ip.ID, db.ID, RelAccessed, 1.0)

	// riskScore must exceed the threshold, 50 exactly does not qualify
	if paths := g.FindAttackPaths(db.ID, 0); len(paths) != 0 {
		t.Errorf("Expected no paths from low-risk sources, got %d", len(paths))
	}
}

func TestFindAttackPaths_UnknownTarget(t *testing.T) {
	g, _, _, _ := buildAttackScenario(t)
	if paths := g.FindAttackPaths("missing", 0); len(paths) != 0 {
		t.Errorf("Expected no paths for unknown target, got %d", len(paths))
	}
}

func TestMitigations_Deduplicated(t *testing.T) {
	g := New()
	ip := g.UpsertEntity(UpsertInput{Type: EntityIP, Name: "10.0.0.9", RiskScore: riskPtr(80)})
	hopA := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "hop-a", RiskScore: riskPtr(10)})
	hopB := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "hop-b", RiskScore: riskPtr(10)})
	db := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "db-prod", RiskScore: riskPtr(50)})

	mustAddRel(t, g, ip.ID, hopA.ID, RelCommunicatesWith, 1.0)
	mustAddRel(t, g, hopA.ID, hopB.ID, RelCommunicatesWith, 1.0)
	mustAddRel(t, g, hopB.ID, db.ID, RelCommunicatesWith, 1.0)

	paths := g.FindAttackPaths(db.ID, 0)
	if len(paths) != 1 {
		t.Fatalf("Expected 1 path, got %d", len(paths))
	}
	count := 0
	for _, m := range paths[0].Mitigations {
		if m == "Implement network segmentation" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected segmentation mitigation exactly once, got %d", count)
	}
}
