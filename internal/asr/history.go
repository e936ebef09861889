package asr

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Transcript is one recorded utterance.
type Transcript struct {
	ID        int64
	Raw       string
	Corrected string
	WavPath   string
	CreatedAt time.Time
}

// History stores transcripts in a local SQLite database.
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the transcript history store.
func OpenHistory(dbPath string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			raw TEXT,
			corrected TEXT,
			wav_path TEXT,
			created_at DATETIME
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create transcripts table: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the store.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one transcript.
func (h *History) Record(raw, corrected, wavPath string) error {
	_, err := h.db.Exec(`
		INSERT INTO transcripts (raw, corrected, wav_path, created_at)
		VALUES (?, ?, ?, ?)
	`, raw, corrected, wavPath, time.Now())
	if err != nil {
		return fmt.Errorf("record transcript: %w", err)
	}
	return nil
}

// Recent returns up to n transcripts, most recent first.
func (h *History) Recent(n int) ([]Transcript, error) {
	rows, err := h.db.Query(`
		SELECT id, raw, corrected, wav_path, created_at
		FROM transcripts
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var out []Transcript
	for rows.Next() {
		var t Transcript
		if err := rows.Scan(&t.ID, &t.Raw, &t.Corrected, &t.WavPath, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
