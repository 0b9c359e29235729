package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS task_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT NOT NULL,
    binary TEXT NOT NULL,
    source TEXT NOT NULL,
    mode TEXT NOT NULL,
    outcome TEXT NOT NULL,
    output TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_task_history_finished ON task_history(finished_at DESC);
`

// Record is one finished task.
type Record struct {
	ID         int64
	TaskID     string
	Binary     string
	Source     string
	Mode       string
	Outcome    string
	Output     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the task's elapsed wall time.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
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

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts a finished task record.
func (s *Store) Add(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO task_history (task_id, binary, source, mode, outcome, output, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TaskID,
		rec.Binary,
		rec.Source,
		rec.Mode,
		rec.Outcome,
		rec.Output,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// List returns the most recent records, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, task_id, binary, source, mode, outcome, output, started_at, finished_at
              FROM task_history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var started, finished string
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.Binary, &rec.Source, &rec.Mode, &rec.Outcome, &rec.Output, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// Clear removes all records and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM task_history`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return count, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}
