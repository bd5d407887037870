// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// We use modernc.org/sqlite (a pure Go translation of SQLite) rather than
// the CGo-based driver, so the binary cross-compiles without a C toolchain.
// Use ":memory:" as the path for an in-memory database in tests.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface over it. New creates it, Close destroys it.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, configures it and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress; the default
	// journal mode locks the whole file per write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The comment reply cascade
	// and the version cascade depend on them.
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

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			password_hash TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			about         TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email) WHERE email != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			language    TEXT NOT NULL,
			code        TEXT NOT NULL,
			visibility  TEXT NOT NULL DEFAULT 'public',
			author_id   TEXT NOT NULL REFERENCES users(id),
			forked_from TEXT REFERENCES snippets(id) ON DELETE SET NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
		CREATE INDEX IF NOT EXISTS idx_snippets_author_id ON snippets(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippet_versions (
			id          TEXT PRIMARY KEY,
			snippet_id  TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			code        TEXT NOT NULL,
			language    TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			author_id   TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_versions_snippet_created
			ON snippet_versions(snippet_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating snippet_versions table: %w", err)
	}

	// parent_id cascades: deleting a comment removes its whole reply subtree.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id),
			parent_id  TEXT REFERENCES comments(id) ON DELETE CASCADE,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_snippet_id ON comments(snippet_id);
		CREATE INDEX IF NOT EXISTS idx_comments_parent_id ON comments(parent_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	// The UNIQUE constraints make "at most one upvote per (user, target)" a
	// store-level guarantee, not just a client-logic one.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS upvotes (
			id         TEXT PRIMARY KEY,
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (snippet_id, user_id)
		);
		CREATE TABLE IF NOT EXISTS comment_upvotes (
			id         TEXT PRIMARY KEY,
			comment_id TEXT NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (comment_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating upvote tables: %w", err)
	}

	return nil
}
