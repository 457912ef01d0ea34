package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS screening_history (
	screening_id        TEXT PRIMARY KEY,
	screening_date      DATETIME NOT NULL,
	input                TEXT NOT NULL,
	is_hit               INTEGER NOT NULL,
	hit_count            INTEGER NOT NULL,
	matches              TEXT NOT NULL,
	algorithm_version    TEXT NOT NULL,
	processing_time_ms   INTEGER NOT NULL,
	top_recommendation   TEXT NOT NULL
);
`

// SQLiteStore is a ScreeningHistoryStore backed by a local SQLite file,
// the local/dev counterpart to PostgresStore selected via
// data.history_driver = "sqlite".
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *observability.Logger
}

// NewSQLiteStore builds a SQLiteStore from cfg.Data.HistoryDSN (the file path).
func NewSQLiteStore(cfg *config.Config, logger *observability.Logger) *SQLiteStore {
	return &SQLiteStore{path: cfg.Data.HistoryDSN, logger: logger}
}

// Connect opens the database file and applies the schema.
func (s *SQLiteStore) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("store: open sqlite: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent screenings.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return fmt.Errorf("store: create schema: %w", err)
	}
	s.db = db
	return nil
}

// Close closes the database file.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the connection is still alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveScreening inserts one screening row.
func (s *SQLiteStore) SaveScreening(ctx context.Context, resp models.ScreeningResponse) error {
	matchesJSON, err := json.Marshal(resp.Matches)
	if err != nil {
		return fmt.Errorf("store: marshal matches: %w", err)
	}
	inputJSON, err := json.Marshal(resp.Input)
	if err != nil {
		return fmt.Errorf("store: marshal input: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO screening_history (
			screening_id, screening_date, input, is_hit, hit_count,
			matches, algorithm_version, processing_time_ms, top_recommendation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		resp.ScreeningID, resp.ScreeningDate, string(inputJSON), resp.IsHit, resp.HitCount,
		string(matchesJSON), resp.AlgorithmVersion, resp.ProcessingTimeMs, topRecommendation(resp))
	if err != nil {
		return fmt.Errorf("store: insert screening_history: %w", err)
	}
	return nil
}

// GetScreening retrieves a single screening by ID.
func (s *SQLiteStore) GetScreening(ctx context.Context, screeningID string) (*models.ScreeningResponse, error) {
	query := `
		SELECT screening_id, screening_date, input, is_hit, hit_count,
		       matches, algorithm_version, processing_time_ms
		FROM screening_history
		WHERE screening_id = ?
	`
	return scanScreeningRow(s.db.QueryRowContext(ctx, query, screeningID))
}

// ListScreeningsByRecommendation returns a page of screenings whose top
// match carried the given recommendation.
func (s *SQLiteStore) ListScreeningsByRecommendation(ctx context.Context, rec models.Recommendation, limit, offset int) ([]models.ScreeningResponse, error) {
	query := `
		SELECT screening_id, screening_date, input, is_hit, hit_count,
		       matches, algorithm_version, processing_time_ms
		FROM screening_history
		WHERE top_recommendation = ?
		ORDER BY screening_date DESC
		LIMIT ? OFFSET ?
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
