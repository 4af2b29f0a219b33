package handlers

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmunix/romshelf/internal/migrations"
	_ "modernc.org/sqlite"
)

func setupHandlerTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	return db
}
