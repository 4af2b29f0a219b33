package library

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/vmunix/romshelf/internal/migrations"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}

// testIdentity builds a valid identity from a single repeated hex digit.
func testIdentity(digit string) Identity {
	return Identity(strings.Repeat(digit, 40))
}
