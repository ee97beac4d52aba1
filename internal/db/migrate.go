package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Migrate runs all schema migrations for the given dialect.
// Every statement is idempotent so Migrate can run on each open.
func Migrate(db *sql.DB, d Dialect) error {
	stmts := sqliteMigrations
	if d == Postgres {
		stmts = postgresMigrations
	}
	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS blobs (
		blob_key   TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		revision   INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS blob_revisions (
		blob_key   TEXT NOT NULL,
		revision   INTEGER NOT NULL CHECK(revision > 0),
		payload    BLOB NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (blob_key, revision)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_blob_revisions_key ON blob_revisions(blob_key, revision DESC)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS blobs (
		blob_key   TEXT PRIMARY KEY,
		payload    BYTEA NOT NULL,
		revision   BIGINT NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS blob_revisions (
		blob_key   TEXT NOT NULL,
		revision   BIGINT NOT NULL CHECK(revision > 0),
		payload    BYTEA NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (blob_key, revision)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_blob_revisions_key ON blob_revisions(blob_key, revision DESC)`,
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
// Queries must not contain literal question marks.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
