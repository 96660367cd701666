package graph

import (
	"fmt"
	"testing"
)

func buildChain(t *testing.T) (*Graph, []*Entity) {
	t.Helper()
	g := New()

	// a -> b -> c -> d with rising risk
	entities := make([]*Entity, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		entities[i] = g.UpsertEntity(UpsertInput{
			Type:      EntityAsset,
			Name:      name,
			RiskScore: riskPtr(float64((i + 1) * 10)),
		})
	}
	for i := 0; i < 3; i++ {
		mustAddRel(t, g, entities[i].ID, entities[i+1].ID, RelCommunicatesWith, 1.0)
	}
	return g, entities
}

func TestCalculateBlastRadius_FullChain(t *testing.T) {
	g, entities := buildChain(t)

	radius := g.CalculateBlastRadius(entities[0].ID, 0)
	if len(radius.AffectedEntities) != 4 {
		t.Fatalf("Expected 4 affected entities, got %d", len(radius.AffectedEntities))
	}
	// mean of 10+20+30+40
	if radius.RiskScore != 25 {
		t.Errorf("Expected mean risk 25, got %f", radius.RiskScore)
	}
	want := fmt.Sprintf("Compromise of %s could affect 4 entities", entities[0].Name)
	if radius.Description != want {
		t.Errorf("Unexpected description: %q", radius.Description)
	}
}

func TestCalculateBlastRadius_DepthBound(t *testing.T) {
	g, entities := buildChain(t)

	// Two levels cover the seed and its direct neighbor only
	radius := g.CalculateBlastRadius(entities[0].ID, 2)
	if len(radius.AffectedEntities) != 2 {
		t.Fatalf("Expected 2 affected entities at depth 2, got %d", len(radius.AffectedEntities))
	}
}

func TestCalculateBlastRadius_SeedAlwaysIncluded(t *testing.T) {
	g := New()
	lone := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "island", RiskScore: riskPtr(50)})

	radius := g.CalculateBlastRadius(lone.ID, 0)
	if len(radius.AffectedEntities) != 1 || radius.AffectedEntities[0].ID != lone.ID {
		t.Fatalf("Expected the seed itself, got %d entities", len(radius.AffectedEntities))
	}
	if radius.RiskScore != 50 {
		t.Errorf("Expected risk 50, got %f", radius.RiskScore)
	}
}

func TestCalculateBlastRadius_IncomingEdgesIgnored(t *testing.T) {
	g := New()
	seed := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "seed"})
	upstream := g.UpsertEntity(UpsertInput{Type: EntityAsset, Name: "upstream"})
	mustAddRel(t, g, upstream.ID, seed.ID, RelCommunicatesWith, 1.0)

	radius := g.CalculateBlastRadius(seed.ID, 0)
	if len(radius.AffectedEntities) != 1 {
		t.Errorf("Expected only the seed, got %d entities", len(radius.AffectedEntities))
	}
}

func TestCalculateBlastRadius_UnknownSeed(t *testing.T) {
	g := New()
	radius := g.CalculateBlastRadius("missing", 0)
	if len(radius.AffectedEntities) != 0 {
		t.Errorf("Expected no entities for unknown seed, got %d", len(radius.AffectedEntities))
	}
	if radius.RiskScore != 0 {
		t.Errorf("Expected zero risk, got %f", radius.RiskScore)
	}
}
