// Package history provides an optional SQLite ledger of version file writes.
// Each successful run appends one entry, so a build host can answer
// "which version did project X produce, and when" after the fact.
// The version file itself stays the only required output.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// DefaultKeyword selects DefaultDBPath when given as the database path.
const DefaultKeyword = "default"

// Entry is one recorded version file write.
type Entry struct {
	// Project is the project name the file was written for.
	Project string
	// Version is the version string written.
	Version string
	// Source is the decision path that produced Version.
	Source string
	// Dir is the absolute project directory.
	Dir string
	// CreatedAt is when the write happened. Zero means now.
	CreatedAt time.Time
}

// Ledger persists and retrieves history entries. Implementations must be
// safe for concurrent use.
type Ledger interface {
	// Append persists a single entry.
	Append(ctx context.Context, e Entry) error
	// Recent returns the most recent n entries for project, ordered
	// oldest-first. If fewer than n exist, all are returned.
	Recent(ctx context.Context, project string, n int) ([]Entry, error)
	// Close releases any resources held by the ledger.
	Close() error
}

// SQLiteLedger is a Ledger backed by a local SQLite database.
type SQLiteLedger struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns ~/.checkversion/history.db, creating the directory
// if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("history: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".checkversion")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("history: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteLedger at path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests and
// DefaultKeyword for DefaultDBPath.
func Open(path string) (*SQLiteLedger, error) {
	if path == DefaultKeyword {
		p, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY between concurrent writers.
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// migrate creates the schema if it does not already exist.
func (l *SQLiteLedger) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS resolutions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    project     TEXT    NOT NULL,
    version     TEXT    NOT NULL,
    source      TEXT    NOT NULL,
    dir         TEXT    NOT NULL,
    created_at  INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_resolutions_project_created
    ON resolutions (project, created_at);
`
	if _, err := l.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Append persists a single entry.
func (l *SQLiteLedger) Append(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	const q = `INSERT INTO resolutions (project, version, source, dir, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, q, e.Project, e.Version, e.Source, e.Dir, e.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n entries for project, ordered oldest-first.
func (l *SQLiteLedger) Recent(ctx context.Context, project string, n int) ([]Entry, error) {
	const q = `
SELECT project, version, source, dir, created_at FROM (
    SELECT id, project, version, source, dir, created_at
    FROM   resolutions
    WHERE  project = ?
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := l.db.QueryContext(ctx, q, project, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.Project, &e.Version, &e.Source, &e.Dir, &ts); err != nil {
			return nil, fmt.Errorf("history: recent scan: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}
	return entries, nil
}

// Close releases the database connection pool.
func (l *SQLiteLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("history: close: %w", err)
	}
	return nil
}
