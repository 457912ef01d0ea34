package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
)

// PostgresStore is a ScreeningHistoryStore backed by PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	dsn    string
	logger *observability.Logger
}

// NewPostgresStore builds a PostgresStore from cfg.Data.HistoryDSN.
func NewPostgresStore(cfg *config.Config, logger *observability.Logger) *PostgresStore {
	return &PostgresStore{dsn: cfg.Data.HistoryDSN, logger: logger}
}

// Connect opens the pool and verifies connectivity.
func (s *PostgresStore) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return fmt.Errorf("store: open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping postgres: %w", err)
	}
	s.db = db
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the connection is still alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveScreening inserts one screening row, JSON-encoding the nested
// matches slice into a text column the same way nested score maps are
// encoded elsewhere in this schema.
func (s *PostgresStore) SaveScreening(ctx context.Context, resp models.ScreeningResponse) error {
	matchesJSON, err := json.Marshal(resp.Matches)
	if err != nil {
		return fmt.Errorf("store: marshal matches: %w", err)
	}
	inputJSON, err := json.Marshal(resp.Input)
	if err != nil {
		return fmt.Errorf("store: marshal input: %w", err)
	}

	query := `
		INSERT INTO screening_history (
			screening_id, screening_date, input, is_hit, hit_count,
			matches, algorithm_version, processing_time_ms, top_recommendation
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (screening_id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		resp.ScreeningID, resp.ScreeningDate, string(inputJSON), resp.IsHit, resp.HitCount,
		string(matchesJSON), resp.AlgorithmVersion, resp.ProcessingTimeMs, topRecommendation(resp))
	if err != nil {
		return fmt.Errorf("store: insert screening_history: %w", err)
	}
	return nil
}

func topRecommendation(resp models.ScreeningResponse) string {
	if len(resp.Matches) == 0 {
		return "no_hit"
	}
	return string(resp.Matches[0].Recommendation)
}

// GetScreening retrieves a single screening by ID.
func (s *PostgresStore) GetScreening(ctx context.Context, screeningID string) (*models.ScreeningResponse, error) {
	query := `
		SELECT screening_id, screening_date, input, is_hit, hit_count,
		       matches, algorithm_version, processing_time_ms
		FROM screening_history
		WHERE screening_id = $1
	`
	return scanScreeningRow(s.db.QueryRowContext(ctx, query, screeningID))
}

// ListScreeningsByRecommendation returns a page of screenings whose top
// match carried the given recommendation.
func (s *PostgresStore) ListScreeningsByRecommendation(ctx context.Context, rec models.Recommendation, limit, offset int) ([]models.ScreeningResponse, error) {
	query := `
		SELECT screening_id, screening_date, input, is_hit, hit_count,
		       matches, algorithm_version, processing_time_ms
		FROM screening_history
		WHERE top_recommendation = $1
		ORDER BY screening_date DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, string(rec), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: query screening_history: %w", err)
	}
	defer rows.Close()

	var out []models.ScreeningResponse
	for rows.Next() {
		resp, err := scanScreeningRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, rows.Err()
}

// rowScanner abstracts over *sql.Row and *sql.Rows, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScreeningRow(row rowScanner) (*models.ScreeningResponse, error) {
	var resp models.ScreeningResponse
	var inputJSON, matchesJSON string

	err := row.Scan(
		&resp.ScreeningID, &resp.ScreeningDate, &inputJSON, &resp.IsHit, &resp.HitCount,
		&matchesJSON, &resp.AlgorithmVersion, &resp.ProcessingTimeMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan screening_history row: %w", err)
	}

	if err := json.Unmarshal([]byte(inputJSON), &resp.Input); err != nil {
		return nil, fmt.Errorf("store: unmarshal input: %w", err)
	}
	if err := json.Unmarshal([]byte(matchesJSON), &resp.Matches); err != nil {
		return nil, fmt.Errorf("store: unmarshal matches: %w", err)
	}
	return &resp, nil
}
