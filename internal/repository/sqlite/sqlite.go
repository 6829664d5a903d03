// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for an in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import. The sqlite package's
	// init() function registers itself with database/sql as a driver named
	// "sqlite", so sql.Open("sqlite", ...) knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/feedback.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping verifies the connection actually works. Without this, a bad path or
	// permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening — important
	// for a web server where the ingestion endpoint and the dashboard hit the
	// same file at the same time.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	// The ownership chain and the project → feedback → label cascade depend on
	// them, so they must be on for every connection.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this wherever New()
// is called — it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to run
// on every start.
//
// The cascade from projects to feedback to labels is explicit in the schema
// (ON DELETE CASCADE): deleting a project removes its feedback and all labels
// on that feedback in the same statement, never deferred to cleanup code.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			project_key TEXT NOT NULL UNIQUE,
			owner_id    TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			type       TEXT NOT NULL CHECK (type IN ('BUG', 'FEATURE', 'OTHER')),
			message    TEXT NOT NULL,
			email      TEXT,
			user_agent TEXT,
			sentiment  TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_project_id ON feedback(project_id);
		CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating feedback table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS labels (
			id          TEXT PRIMARY KEY,
			feedback_id TEXT NOT NULL REFERENCES feedback(id) ON DELETE CASCADE,
			label       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_labels_feedback_id ON labels(feedback_id);
	`)
	if err != nil {
		return fmt.Errorf("creating labels table: %w", err)
	}

	return nil
}

// isConstraintErr reports whether err is a SQLite constraint failure whose
// message contains the given fragment. modernc.org/sqlite surfaces constraint
// violations as plain errors with messages like
// "constraint failed: UNIQUE constraint failed: users.email (2067)",
// so matching on the fragment is how we classify them.
func isConstraintErr(err error, fragment string) bool {
	return err != nil && strings.Contains(err.Error(), fragment)
}

// nullIfEmpty maps Go's empty-string zero value to SQL NULL for optional
// columns (feedback email, user agent, sentiment).
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
