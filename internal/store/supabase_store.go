package store

import (
	"context"
	"fmt"

	supa "github.com/supabase-community/supabase-go"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
)

// SupabaseStore is a ScreeningHistoryStore backed by Supabase's REST API,
// the managed-Postgres alternative for hosted deployments, mirroring the
// teacher's SupabaseClient but against a "screening_history" table.
type SupabaseStore struct {
	client *supa.Client
	logger *observability.Logger
}

// NewSupabaseStore builds a SupabaseStore from cfg.Data.SupabaseURL/Key.
func NewSupabaseStore(cfg *config.Config, logger *observability.Logger) (*SupabaseStore, error) {
	if cfg.Data.SupabaseURL == "" || cfg.Data.SupabaseKey == "" {
		return nil, fmt.Errorf("store: supabase_url and supabase_key are required for the supabase history driver")
	}
	client, err := supa.NewClient(cfg.Data.SupabaseURL, cfg.Data.SupabaseKey, nil)
	if err != nil {
		return nil, fmt.Errorf("store: create supabase client: %w", err)
	}
	return &SupabaseStore{client: client, logger: logger}, nil
}

// Close is a no-op: the Supabase REST client holds no persistent connection.
func (s *SupabaseStore) Close() error { return nil }

// Ping verifies connectivity with a lightweight count query.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	_, err := s.client.DB.From("screening_history").Select("count", false).Execute("")
	return err
}

// SaveScreening inserts one screening row via the PostgREST client.
func (s *SupabaseStore) SaveScreening(ctx context.Context, resp models.ScreeningResponse) error {
	row := map[string]interface{}{
		"screening_id":        resp.ScreeningID,
		"screening_date":      resp.ScreeningDate,
		"input":               resp.Input,
		"is_hit":              resp.IsHit,
		"hit_count":           resp.HitCount,
		"matches":             resp.Matches,
		"algorithm_version":   resp.AlgorithmVersion,
		"processing_time_ms":  resp.ProcessingTimeMs,
		"top_recommendation":  topRecommendation(resp),
	}
	_, err := s.client.DB.From("screening_history").Insert(row).Execute("")
	if err != nil {
		return fmt.Errorf("store: insert screening_history via supabase: %w", err)
	}
	return nil
}

// GetScreening retrieves a single screening by ID.
func (s *SupabaseStore) GetScreening(ctx context.Context, screeningID string) (*models.ScreeningResponse, error) {
	result, err := s.client.DB.From("screening_history").
		Select("*").
		Eq("screening_id", screeningID).
		Single().
		Execute("")
	if err != nil {
		return nil, fmt.Errorf("store: get screening via supabase: %w", err)
	}

	var resp models.ScreeningResponse
	if err := result.Unmarshal(&resp); err != nil {
		return nil, fmt.Errorf("store: unmarshal supabase response: %w", err)
	}
	return &resp, nil
}

// ListScreeningsByRecommendation returns a page of screenings whose top
// match carried the given recommendation.
func (s *SupabaseStore) ListScreeningsByRecommendation(ctx context.Context, rec models.Recommendation, limit, offset int) ([]models.ScreeningResponse, error) {
	result, err := s.client.DB.From("screening_history").
		Select("*").
		Eq("top_recommendation", string(rec)).
		Order("screening_date", &map[string]string{"ascending": "false"}).
		Execute("")
	if err != nil {
		return nil, fmt.Errorf("store: list screenings via supabase: %w", err)
	}

	var all []models.ScreeningResponse
	if err := result.Unmarshal(&all); err != nil {
		return nil, fmt.Errorf("store: unmarshal supabase response: %w", err)
	}

	// postgrest-go's query builder here doesn't carry an offset/limit
	// helper in this client version, so pagination is applied client-side.
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
