package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/handbook/internal/db"
)

// NewTestDB opens a migrated in-memory SQLite database that is closed with
// the test. It is pinned to one connection.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewFileTestDB opens a migrated SQLite file under t.TempDir. Every pooled
// connection sees the same data, which concurrency tests need.
func NewFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "handbook.db"))
}

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	conn, err := db.OpenDB(path)
	if err != nil {
		t.Fatalf("opening test database %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
