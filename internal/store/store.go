// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tomato/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for counters and the completion journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS completions (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			day TEXT NOT NULL,
			cause TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_completions_day ON completions(day);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored for key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// Delete removes the given keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = "?"
		args[i] = key
	}
	query := fmt.Sprintf(`DELETE FROM kv WHERE key IN (%s)`, strings.Join(placeholders, ","))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// RecordCompletion appends a completed work session to the journal.
func (s *Store) RecordCompletion(ctx context.Context, c model.Completion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO completions (run_id, completed_at, day, cause) VALUES (?, ?, ?, ?)`,
		c.RunID,
		c.CompletedAt.Format(time.RFC3339Nano),
		c.Day,
		string(c.Trigger),
	)
	return err
}

// ClearCompletions removes every journal row.
func (s *Store) ClearCompletions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM completions`)
	return err
}

// ListCompletions returns journal rows in completion order.
func (s *Store) ListCompletions(ctx context.Context, cfg model.StatsConfig) ([]model.Completion, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "day >= ?")
		args = append(args, model.DayString(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT run_id, completed_at, day, cause
		FROM completions
		WHERE %s
		ORDER BY completed_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Completion
	for rows.Next() {
		var c model.Completion
		var completedAt, trigger string
		if err := rows.Scan(&c.RunID, &completedAt, &c.Day, &trigger); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, err
		}
		c.CompletedAt = parsed
		c.Trigger = model.Trigger(trigger)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DailyCounts returns the number of completions per stored day, oldest first.
// Days without completions are absent.
func (s *Store) DailyCounts(ctx context.Context, cfg model.StatsConfig) ([]model.DayCount, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "day >= ?")
		args = append(args, model.DayString(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT day, COUNT(*) FROM completions
		WHERE %s
		GROUP BY day
		ORDER BY day ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DayCount
	for rows.Next() {
		var day string
		var dc model.DayCount
		if err := rows.Scan(&day, &dc.Count); err != nil {
			return nil, err
		}
		parsed, err := time.ParseInLocation(model.DayLayout, day, time.Local)
		if err != nil {
			return nil, err
		}
		dc.Day = parsed
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
