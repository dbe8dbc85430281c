// Package activity journals UI-bound events to SQLite so listener outages
// and update attempts can be inspected after the fact.
package activity

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/supacortex/desktop/internal/events"
	"github.com/supacortex/desktop/internal/paths"

	_ "modernc.org/sqlite"
)

// maxPayload caps the stored payload text.
const maxPayload = 500

// tsLayout is fixed-width UTC so timestamps compare correctly as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one journal row.
type Entry struct {
	ID      int64     `json:"id"`
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Payload string    `json:"payload"`
}

// Store implements events.Sink on top of a SQLite database.
type Store struct {
	db      *sql.DB
	path    string
	log     *slog.Logger
	exclude map[string]bool
	now     func() time.Time
}

var _ events.Sink = (*Store)(nil)

// NewStore opens (or creates) the database at path. Events whose kind is
// listed in exclude are not journaled.
func NewStore(path string, log *slog.Logger, exclude ...string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DirPerm); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Set PRAGMAs before any DDL.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=2000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	ddl := `
CREATE TABLE IF NOT EXISTS activity (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT    NOT NULL,
    kind      TEXT    NOT NULL,
    payload   TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_activity_kind      ON activity(kind);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	s := &Store{db: db, path: path, log: log, exclude: map[string]bool{}, now: time.Now}
	for _, k := range exclude {
		s.exclude[k] = true
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Publish journals the event. Failures are logged, never returned; the
// journal is best-effort.
func (s *Store) Publish(kind string, payload any) {
	if s.exclude[kind] {
		return
	}
	if err := s.Record(kind, encodePayload(payload)); err != nil {
		s.log.Warn("activity: record failed", "kind", kind, "error", err)
	}
}

// Record inserts one row.
func (s *Store) Record(kind, payload string) error {
	payload = truncate(payload, maxPayload)
	_, err := s.db.Exec(`INSERT INTO activity (timestamp, kind, payload) VALUES (?, ?, ?)`,
		s.now().UTC().Format(tsLayout), kind, payload)
	return err
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) ([]Entry, error) {
	query := `SELECT id, timestamp, kind, payload FROM activity ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Payload); err != nil {
			return nil, err
		}
		e.Time, _ = time.Parse(tsLayout, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountSince returns how many entries of kind were recorded at or after cutoff.
func (s *Store) CountSince(kind string, cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM activity WHERE kind = ? AND timestamp >= ?`,
		kind, cutoff.UTC().Format(tsLayout)).Scan(&n)
	return n, err
}

// Clean removes entries older than days and returns how many were removed.
func (s *Store) Clean(days int) (int, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(tsLayout)
	res, err := s.db.Exec(`DELETE FROM activity WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Clear deletes all entries.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM activity`)
	return err
}

// truncate cuts s to at most max bytes, backing off to a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func encodePayload(p any) string {
	switch v := p.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
