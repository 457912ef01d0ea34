package matching

import (
	"testing"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/index"
	"sanctions-screening/internal/models"
)

func buildTestIndex(entities []models.SanctionsEntity) *index.Index {
	return index.Build(entities)
}

// Exact document match with a weak/unrelated name still produces a
// layer-1 AUTO_ESCALATE hit.
func TestMatchExactDocumentWeakName(t *testing.T) {
	entities := []models.SanctionsEntity{
		{
			ExternalID:  "OFAC-1",
			Source:      models.SourceOFAC,
			EntityType:  models.EntityIndividual,
			PrimaryName: "Ibrahim Al-Banna",
			AllNames:    []string{"Ibrahim Al-Banna"},
			IdentityDocuments: []models.IdentityDocument{
				{Type: "Passport", Number: "AB123456"},
			},
		},
	}
	idx := buildTestIndex(entities)
	engine := New(idx, config.Default())

	outcome := engine.Match(models.ScreeningInput{Name: "Nobody", DocumentNumber: "ab-123-456"}, 10)
	if outcome.AdmittedCount != 1 {
		t.Fatalf("expected 1 admitted match, got %d", outcome.AdmittedCount)
	}
	m := outcome.Matches[0]
	if m.MatchLayer != 1 {
		t.Fatalf("expected match_layer 1, got %d", m.MatchLayer)
	}
	if m.Confidence.Overall != 100 {
		t.Fatalf("expected overall confidence 100, got %f", m.Confidence.Overall)
	}
	if !m.HasFlag(models.FlagDocumentExactMatch) {
		t.Fatalf("expected DOCUMENT_EXACT_MATCH flag, got %v", m.Flags)
	}
	if m.Recommendation != models.AutoEscalate {
		t.Fatalf("expected AUTO_ESCALATE, got %s", m.Recommendation)
	}
}

func TestMatchStrongNameNoDocument(t *testing.T) {
	entities := []models.SanctionsEntity{
		{
			ExternalID:  "OFAC-2",
			Source:      models.SourceOFAC,
			EntityType:  models.EntityIndividual,
			PrimaryName: "John Robert Smith",
			AllNames:    []string{"John Robert Smith"},
		},
	}
	idx := buildTestIndex(entities)
	engine := New(idx, config.Default())

	outcome := engine.Match(models.ScreeningInput{Name: "John Robert Smith"}, 10)
	if outcome.AdmittedCount != 1 {
		t.Fatalf("expected 1 admitted match, got %d", outcome.AdmittedCount)
	}
	m := outcome.Matches[0]
	if m.Confidence.Name < 99 {
		t.Fatalf("expected near-perfect name score, got %f", m.Confidence.Name)
	}
	if m.MatchLayer != 3 {
		t.Fatalf("expected layer 3 (high confidence name, no DOB/nationality), got %d", m.MatchLayer)
	}
}

func TestMatchUnrelatedNameIsNotAdmitted(t *testing.T) {
	entities := []models.SanctionsEntity{
		{
			ExternalID:  "OFAC-3",
			Source:      models.SourceOFAC,
			EntityType:  models.EntityIndividual,
			PrimaryName: "Zzyzx Qvorlak",
			AllNames:    []string{"Zzyzx Qvorlak"},
		},
	}
	idx := buildTestIndex(entities)
	engine := New(idx, config.Default())

	outcome := engine.Match(models.ScreeningInput{Name: "John Smith"}, 10)
	if outcome.AdmittedCount != 0 {
		t.Fatalf("expected no admitted matches for unrelated name, got %d", outcome.AdmittedCount)
	}
}

func TestMatchCommonNameDowngradesAutoEscalate(t *testing.T) {
	entities := []models.SanctionsEntity{
		{
			ExternalID:  "OFAC-4",
			Source:      models.SourceOFAC,
			EntityType:  models.EntityIndividual,
			PrimaryName: "John Smith",
			AllNames:    []string{"John Smith"},
		},
	}
	idx := buildTestIndex(entities)
	cfg := config.Default()
	cfg.Matching.CommonNames = []string{"John Smith"}
	engine := New(idx, cfg)

	outcome := engine.Match(models.ScreeningInput{Name: "John Smith"}, 10)
	if outcome.AdmittedCount != 1 {
		t.Fatalf("expected 1 admitted match, got %d", outcome.AdmittedCount)
	}
	m := outcome.Matches[0]
	if !m.HasFlag(models.FlagCommonNameRequiresSecondaryValidation) {
		t.Fatalf("expected common-name secondary-validation flag, got %v", m.Flags)
	}
	if m.Recommendation == models.AutoEscalate {
		t.Fatal("expected AUTO_ESCALATE to be downgraded for a common name without document corroboration")
	}
}

func TestMatchResultsAreSortedDescending(t *testing.T) {
	entities := []models.SanctionsEntity{
		{ExternalID: "A", PrimaryName: "John Smith", AllNames: []string{"John Smith"}, EntityType: models.EntityIndividual},
		{ExternalID: "B", PrimaryName: "Jon Smithe", AllNames: []string{"Jon Smithe"}, EntityType: models.EntityIndividual},
	}
	idx := buildTestIndex(entities)
	engine := New(idx, config.Default())

	outcome := engine.Match(models.ScreeningInput{Name: "John Smith"}, 10)
	for i := 1; i < len(outcome.Matches); i++ {
		if outcome.Matches[i-1].Confidence.Overall < outcome.Matches[i].Confidence.Overall {
			t.Fatalf("expected descending order, got %+v", outcome.Matches)
		}
	}
}

func TestMatchEntityTypeFlag(t *testing.T) {
	entities := []models.SanctionsEntity{
		{
			ExternalID:  "V-1",
			EntityType:  models.EntityVessel,
			PrimaryName: "MV Example",
			AllNames:    []string{"MV Example"},
		},
	}
	idx := buildTestIndex(entities)
	engine := New(idx, config.Default())

	outcome := engine.Match(models.ScreeningInput{Name: "MV Example"}, 10)
	if outcome.AdmittedCount != 1 {
		t.Fatalf("expected 1 admitted match, got %d", outcome.AdmittedCount)
	}
	if !outcome.Matches[0].HasFlag(models.FlagEntityMatch) {
		t.Fatalf("expected ENTITY_MATCH flag for a non-individual, got %v", outcome.Matches[0].Flags)
	}
}
