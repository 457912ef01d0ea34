// Package store implements ScreeningHistoryStore, an optional relational
// collaborator that persists ScreeningResponse rows for audit trails. It
// is not part of the core screening path: Orchestrator's in-memory ring
// buffer (internal/screening) already satisfies "recent screenings"
// lookups, and a store is wired in only when data.history_driver names
// one of "postgres", "sqlite", or "supabase".
package store

import (
	"context"
	"fmt"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
)

// ScreeningHistoryStore persists and retrieves ScreeningResponse records.
// All three backends (Postgres, SQLite, Supabase) implement the same
// interface so the orchestrator layer never branches on driver.
type ScreeningHistoryStore interface {
	SaveScreening(ctx context.Context, resp models.ScreeningResponse) error
	GetScreening(ctx context.Context, screeningID string) (*models.ScreeningResponse, error)
	ListScreeningsByRecommendation(ctx context.Context, rec models.Recommendation, limit, offset int) ([]models.ScreeningResponse, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open selects and connects a ScreeningHistoryStore per
// cfg.Data.HistoryDriver. An empty driver name is not an error: callers
// should treat a nil, nil return as "history persistence disabled".
func Open(ctx context.Context, cfg *config.Config, logger *observability.Logger) (ScreeningHistoryStore, error) {
	switch cfg.Data.HistoryDriver {
	case "":
		return nil, nil
	case "postgres":
		s := NewPostgresStore(cfg, logger)
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s := NewSQLiteStore(cfg, logger)
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "supabase":
		return NewSupabaseStore(cfg, logger)
	default:
		return nil, fmt.Errorf("store: unknown history_driver %q", cfg.Data.HistoryDriver)
	}
}
