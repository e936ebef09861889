// Package events persists one flat action record per completed task.
// Writes are fire-and-forget from the orchestrator's perspective: a
// failed insert is logged, never propagated.
package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one flat per-task action record.
type Event struct {
	ID         int64
	RunID      string
	Request    string
	Route      string
	Commands   [][]string
	PointerX   int
	PointerY   int
	BeforeShot string
	AfterShot  string
	Success    bool
	Error      string
	ElapsedMS  int64
	CreatedAt  time.Time
}

// Store wraps the SQLite event log.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the event log at path, creating parent directories, enabling
// WAL, and applying pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create events directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open events database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending schema migrations tracked in schema_version.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, `
			CREATE TABLE IF NOT EXISTS events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT,
				request TEXT,
				route TEXT,
				commands TEXT,
				pointer_x INTEGER,
				pointer_y INTEGER,
				before_shot TEXT,
				after_shot TEXT,
				success INTEGER,
				error TEXT,
				elapsed_ms INTEGER,
				created_at DATETIME
			)
		`},
		{2, `CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id)`},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Append inserts one event. Failures are logged and swallowed so a broken
// event log never fails a task.
func (s *Store) Append(e Event) {
	commands, err := json.Marshal(e.Commands)
	if err != nil {
		commands = []byte("[]")
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = s.db.Exec(`
		INSERT INTO events (run_id, request, route, commands, pointer_x, pointer_y,
			before_shot, after_shot, success, error, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Request, e.Route, string(commands), e.PointerX, e.PointerY,
		e.BeforeShot, e.AfterShot, e.Success, e.Error, e.ElapsedMS, created)
	if err != nil {
		log.Printf("[events] append failed: %v", err)
	}
}

// Recent returns up to n events, most recent first.
func (s *Store) Recent(n int) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, request, route, commands, pointer_x, pointer_y,
			before_shot, after_shot, success, error, elapsed_ms, created_at
		FROM events
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var commands string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Request, &e.Route, &commands,
			&e.PointerX, &e.PointerY, &e.BeforeShot, &e.AfterShot,
			&e.Success, &e.Error, &e.ElapsedMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(commands), &e.Commands); err != nil {
			e.Commands = nil
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
