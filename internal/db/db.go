package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour used by migrations and queries.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// OpenDB opens the SQLite file at path, creating its directory, and applies
// migrations. MemoryPath keeps everything on a single connection, since each
// new in-memory connection would start empty.
func OpenDB(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if path == MemoryPath {
		conn.SetMaxOpenConns(1)
	}
	return prepare(conn, SQLite, func(c *sql.DB) error {
		for _, pragma := range sqlitePragmas {
			if _, err := c.Exec(pragma); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
}

// OpenPostgres connects through pgx's database/sql driver, pings and
// applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return prepare(conn, Postgres, func(c *sql.DB) error {
		if err := c.PingContext(ctx); err != nil {
			return fmt.Errorf("pinging postgres: %w", err)
		}
		return nil
	})
}

// prepare runs setup and the migrations, closing conn if either fails.
func prepare(conn *sql.DB, dialect Dialect, setup func(*sql.DB) error) (*sql.DB, error) {
	if err := setup(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := Migrate(conn, dialect); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrating %s: %w", dialect, err)
	}
	return conn, nil
}
