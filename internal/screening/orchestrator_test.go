package screening

import (
	"context"
	"testing"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/index"
	"sanctions-screening/internal/matching"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/validation"
)

func newTestOrchestrator() *Orchestrator {
	entities := []models.SanctionsEntity{
		{
			ExternalID:  "OFAC-1",
			Source:      models.SourceOFAC,
			EntityType:  models.EntityIndividual,
			PrimaryName: "John Robert Smith",
			AllNames:    []string{"John Robert Smith"},
		},
	}
	idx := index.Build(entities)
	cfg := config.Default()
	engine := matching.New(idx, cfg)
	v := validation.New(cfg, nil)
	return New(v, engine, nil, 3)
}

func TestScreenAssignsUUIDAndTimestamp(t *testing.T) {
	o := newTestOrchestrator()
	resp, err := o.Screen(context.Background(), models.ScreeningInput{Name: "John Robert Smith"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScreeningID == "" {
		t.Fatal("expected a non-empty screening ID")
	}
	if resp.ScreeningDate.IsZero() {
		t.Fatal("expected a non-zero screening date")
	}
	if !resp.IsHit || resp.HitCount != 1 {
		t.Fatalf("expected a hit, got is_hit=%v hit_count=%d", resp.IsHit, resp.HitCount)
	}
	if resp.AlgorithmVersion == "" {
		t.Fatal("expected algorithm_version to be set")
	}
}

func TestScreenRejectsInvalidInput(t *testing.T) {
	o := newTestOrchestrator()
	_, err := o.Screen(context.Background(), models.ScreeningInput{Name: "A"}, 10)
	if err == nil || err.Code != models.ErrNameTooShort {
		t.Fatalf("expected NAME_TOO_SHORT, got %v", err)
	}
}

func TestRecentRingBufferEvictsOldest(t *testing.T) {
	o := newTestOrchestrator() // capacity 3
	for i := 0; i < 5; i++ {
		if _, err := o.Screen(context.Background(), models.ScreeningInput{Name: "John Robert Smith"}, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	recent := o.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected ring buffer capped at 3, got %d", len(recent))
	}
}

func TestScreenBulkIsolatesRowFailures(t *testing.T) {
	o := newTestOrchestrator()
	inputs := []models.ScreeningInput{
		{Name: "John Robert Smith"},
		{Name: "A"}, // too short, should fail independently
		{Name: "John Robert Smith"},
	}
	results := o.ScreenBulk(context.Background(), inputs, 10)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].Err == nil {
		t.Fatal("expected row 1 to fail validation")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatal("expected rows 0 and 2 to succeed despite row 1 failing")
	}
}
