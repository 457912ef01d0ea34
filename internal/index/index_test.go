package index

import (
	"testing"

	"sanctions-screening/internal/models"
)

func TestBuildIndexesDocuments(t *testing.T) {
	entities := []models.SanctionsEntity{
		{
			ExternalID: "1",
			PrimaryName: "Alpha",
			IdentityDocuments: []models.IdentityDocument{{Type: "Passport", Number: "ab-123"}},
		},
		{
			ExternalID: "2",
			PrimaryName: "Beta",
			IdentityDocuments: []models.IdentityDocument{{Type: "Passport", Number: "AB123"}},
		},
	}

	idx := Build(entities)
	if idx.Len() != 2 {
		t.Fatalf("expected 2 entities, got %d", idx.Len())
	}

	hits := idx.LookupDocument("AB123")
	if len(hits) != 2 {
		t.Fatalf("expected both entities to share normalized document AB123, got %d", len(hits))
	}
}

func TestBuildIndexesVesselIMO(t *testing.T) {
	entities := []models.SanctionsEntity{
		{
			ExternalID: "1",
			EntityType: models.EntityVessel,
			PrimaryName: "MV Gamma",
			VesselIMO:  "IMO 9876543",
		},
	}

	idx := Build(entities)
	hits := idx.LookupDocument("IMO9876543")
	if len(hits) != 1 || hits[0].PrimaryName != "MV Gamma" {
		t.Fatalf("expected vessel IMO to be indexed, got %v", hits)
	}
}

func TestLookupDocumentMiss(t *testing.T) {
	idx := Build(nil)
	if got := idx.LookupDocument("NOPE"); got != nil {
		t.Fatalf("expected nil for unknown document, got %v", got)
	}
}

func TestLookupDocumentEmptyQuery(t *testing.T) {
	idx := Build([]models.SanctionsEntity{{ExternalID: "1"}})
	if got := idx.LookupDocument(""); got != nil {
		t.Fatalf("expected nil for empty query, got %v", got)
	}
}

func TestNilIndexLenIsZero(t *testing.T) {
	var idx *Index
	if idx.Len() != 0 {
		t.Fatalf("expected 0 for nil index")
	}
}
