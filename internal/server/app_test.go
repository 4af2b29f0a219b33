package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/romshelf/internal/importer"
	"github.com/vmunix/romshelf/internal/library"
	"golang.org/x/sync/errgroup"
)

func TestOpenDB_WALMode(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "romshelf.db"))
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenDB_Memory(t *testing.T) {
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
}

// Concurrent batches against one database file must queue for the write
// lock rather than fail.
func TestOpen_ConcurrentBatches(t *testing.T) {
	cfg := testConfig(t)
	app, err := Open(cfg, false, testLogger())
	require.NoError(t, err)
	defer app.Close()

	src := t.TempDir()
	const n = 40
	paths := make([]string, n)
	for i := range n {
		paths[i] = filepath.Join(src, fmt.Sprintf("game%02d.nes", i))
		require.NoError(t, os.WriteFile(paths[i], []byte(fmt.Sprintf("rom %d", i)), 0644))
	}
	shared := filepath.Join(src, "shared.gba")
	require.NoError(t, os.WriteFile(shared, []byte("shared rom"), 0644))

	ctx := context.Background()
	results := make([]*importer.Result, 2*n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			results[i] = app.Importer.Import(ctx, importer.NewBatch(importer.KindGames, paths[i]))
			return nil
		})
		g.Go(func() error {
			results[n+i] = app.Importer.Import(ctx, importer.NewBatch(importer.KindGames, shared))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sharedCreated := 0
	for i, res := range results {
		require.Empty(t, res.Errors, "batch %d: %v", i, res.Errors)
		require.Len(t, res.Games, 1, "batch %d", i)
		if i >= n {
			sharedCreated += len(res.Created)
		}
	}
	assert.Equal(t, 1, sharedCreated, "exactly one batch creates the shared game")

	_, total, err := app.Library.ListGames(library.GameFilter{})
	require.NoError(t, err)
	assert.Equal(t, n+1, total)

	entries, err := os.ReadDir(filepath.Join(cfg.Library.Root, "games"))
	require.NoError(t, err)
	assert.Len(t, entries, n+1)
}
