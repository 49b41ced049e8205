// Package history persists completed review sessions and the event log
// to a SQLite database under the state directory.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection with session history operations.
type Store struct {
	conn *sql.DB
}

// Open creates or opens the history database at the given path. It
// enables WAL mode and foreign keys and runs migrations. The parent
// directory is created if missing.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create history dir: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
-- Sessions table: one row per completed review or debate session
CREATE TABLE IF NOT EXISTS sessions (
    id             TEXT PRIMARY KEY,
    created_at     DATETIME NOT NULL,
    review_type    TEXT NOT NULL,
    artifact       TEXT NOT NULL,
    round_count    INTEGER NOT NULL DEFAULT 0,
    final_decision TEXT,
    rounds_json    TEXT NOT NULL
);

-- Events table: append-only log of bus events for replay and the viewer
CREATE TABLE IF NOT EXISTS events (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   TEXT,
    event_type   TEXT NOT NULL,
    iteration    INTEGER,
    round        INTEGER,
    payload_json TEXT,
    error        TEXT,
    created_at   DATETIME NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_review_type ON sessions(review_type);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}
