package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	cfg := config.Default()
	cfg.Data.HistoryDSN = ":memory:"
	s := NewSQLiteStore(cfg, nil)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreSaveAndGetScreening(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	resp := models.ScreeningResponse{
		ScreeningID:      "11111111-1111-1111-1111-111111111111",
		ScreeningDate:    time.Now().UTC(),
		Input:            models.ScreeningInput{Name: "John Smith"},
		IsHit:            true,
		HitCount:         1,
		AlgorithmVersion: "sanctions-screening/1",
		Matches: []models.MatchResult{
			{MatchedName: "John Smith", MatchLayer: 3, Recommendation: models.ManualReview},
		},
	}

	require.NoError(t, s.SaveScreening(ctx, resp))

	got, err := s.GetScreening(ctx, resp.ScreeningID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "John Smith", got.Input.Name)
	assert.Len(t, got.Matches, 1)
}

func TestSQLiteStoreListByRecommendation(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for i, rec := range []models.Recommendation{models.AutoEscalate, models.ManualReview, models.AutoEscalate} {
		resp := models.ScreeningResponse{
			ScreeningID:   string(rune('a' + i)),
			ScreeningDate: time.Now().UTC(),
			Matches:       []models.MatchResult{{Recommendation: rec}},
		}
		if err := s.SaveScreening(ctx, resp); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	escalated, err := s.ListScreeningsByRecommendation(ctx, models.AutoEscalate, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(escalated) != 2 {
		t.Fatalf("expected 2 AUTO_ESCALATE rows, got %d", len(escalated))
	}
}

func TestSQLiteStoreGetMissingReturnsNil(t *testing.T) {
	s := newTestSQLiteStore(t)
	got, err := s.GetScreening(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a missing screening, got %+v", got)
	}
}
