package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mcdev12/pitchlab/internal/game/events"
	"github.com/sqlc-dev/pqtype"
)

// SessionRecord is one completed session as persisted.
type SessionRecord struct {
	ID             uuid.UUID       `json:"id"`
	Mode           string          `json:"mode"`
	Timestamp      time.Time       `json:"timestamp"`
	CompletionTime float64         `json:"completion_time"`
	Accuracy       float64         `json:"accuracy"`
	TotalAttempts  int             `json:"total_attempts"`
	Settings       json.RawMessage `json:"settings,omitempty"`
	Results        json.RawMessage `json:"results,omitempty"`
}

// Repository persists completed-session records.
type Repository struct {
	db *sql.DB
}

// Open connects to Postgres and ensures the sessions table exists.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS game_sessions (
	id              UUID PRIMARY KEY,
	mode            TEXT NOT NULL,
	played_at       TIMESTAMPTZ NOT NULL,
	completion_time DOUBLE PRECISION NOT NULL,
	accuracy        DOUBLE PRECISION NOT NULL,
	total_attempts  INTEGER NOT NULL,
	settings        JSONB,
	results         JSONB
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewRepository wraps an existing database handle (tests).
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveSummary persists the summary emitted with a sessionComplete event.
func (r *Repository) SaveSummary(ctx context.Context, summary events.SessionSummary) error {
	record, err := recordFromSummary(summary)
	if err != nil {
		return err
	}
	return r.SaveSession(ctx, record)
}

// SaveSession inserts one session record.
func (r *Repository) SaveSession(ctx context.Context, record SessionRecord) error {
	settings := pqtype.NullRawMessage{RawMessage: record.Settings, Valid: len(record.Settings) > 0}
	results := pqtype.NullRawMessage{RawMessage: record.Results, Valid: len(record.Results) > 0}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO game_sessions (id, mode, played_at, completion_time, accuracy, total_attempts, settings, results)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.Mode, record.Timestamp, record.CompletionTime,
		record.Accuracy, record.TotalAttempts, settings, results,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ListSessions fetches the most recent sessions, optionally filtered by
// mode.
func (r *Repository) ListSessions(ctx context.Context, mode string, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT id, mode, played_at, completion_time, accuracy, total_attempts, settings, results
FROM game_sessions`
	args := []any{}
	if mode != "" {
		query += ` WHERE mode = $1`
		args = append(args, mode)
	}
	query += fmt.Sprintf(` ORDER BY played_at DESC LIMIT %d`, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var settings, results pqtype.NullRawMessage
		if err := rows.Scan(&rec.ID, &rec.Mode, &rec.Timestamp, &rec.CompletionTime,
			&rec.Accuracy, &rec.TotalAttempts, &settings, &results); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if settings.Valid {
			rec.Settings = settings.RawMessage
		}
		if results.Valid {
			rec.Results = results.RawMessage
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func recordFromSummary(summary events.SessionSummary) (SessionRecord, error) {
	var settings json.RawMessage
	if summary.Settings != nil {
		data, err := json.Marshal(summary.Settings)
		if err != nil {
			return SessionRecord{}, fmt.Errorf("failed to marshal session settings: %w", err)
		}
		settings = data
	}
	results, err := json.Marshal(summary.Results)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("failed to marshal session results: %w", err)
	}

	return SessionRecord{
		ID:             uuid.New(),
		Mode:           summary.Mode,
		Timestamp:      summary.Timestamp,
		CompletionTime: summary.CompletionTime,
		Accuracy:       summary.Accuracy,
		TotalAttempts:  summary.TotalAttempts,
		Settings:       settings,
		Results:        results,
	}, nil
}
