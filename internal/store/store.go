// Package store persists enrichment reports in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"video-enrich-go/internal/pipeline"
	"video-enrich-go/internal/types"
)

var ErrNotFound = errors.New("enrichment not found")

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS enrichments (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    difficulty_level TEXT NOT NULL,
    created_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    record_json TEXT NOT NULL,
    analysis_error TEXT
);
CREATE INDEX IF NOT EXISTS idx_enrichments_created_at ON enrichments(created_at);
`

// Record is a stored enrichment.
type Record struct {
	ID            string                 `json:"id"`
	RunID         string                 `json:"run_id"`
	CreatedAt     time.Time              `json:"created_at"`
	DurationMs    int64                  `json:"duration_ms"`
	Metadata      types.EnrichedMetadata `json:"data"`
	AnalysisError string                 `json:"analysis_error,omitempty"`
}

// Store manages enrichment persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores report and returns the new record id.
func (s *Store) Save(ctx context.Context, report pipeline.Report) (string, error) {
	recordJSON, err := json.Marshal(report.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	var analysisErr sql.NullString
	if report.AnalysisErr != nil {
		analysisErr = sql.NullString{String: report.AnalysisErr.Message, Valid: true}
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO enrichments (
            id, run_id, title, category, difficulty_level, created_at, duration_ms, record_json, analysis_error
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		report.RunID,
		report.Metadata.Title,
		report.Metadata.Category,
		report.Metadata.DifficultyLevel,
		s.now().UTC().Format(timeLayout),
		report.Duration.Milliseconds(),
		string(recordJSON),
		analysisErr,
	)
	if err != nil {
		return "", fmt.Errorf("insert enrichment: %w", err)
	}
	return id, nil
}

// Get returns the record with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, created_at, duration_ms, record_json, analysis_error
         FROM enrichments WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, created_at, duration_ms, record_json, analysis_error
         FROM enrichments ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list enrichments: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec         Record
		createdAt   string
		recordJSON  string
		analysisErr sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.RunID, &createdAt, &rec.DurationMs, &recordJSON, &analysisErr); err != nil {
		return Record{}, err
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = ts
	if err := json.Unmarshal([]byte(recordJSON), &rec.Metadata); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	rec.AnalysisError = analysisErr.String
	return rec, nil
}
