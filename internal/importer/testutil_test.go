// internal/importer/testutil_test.go
package importer

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmunix/romshelf/internal/migrations"
	"github.com/vmunix/romshelf/internal/system"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err, "open db")
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err, "apply schema")
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv is a coordinator over a temp library and an in-memory database.
type testEnv struct {
	db      *sql.DB
	root    string // library root
	scratch string
	src     string // where test inputs are written
	coord   *Coordinator
}

func newTestEnv(t *testing.T, registry *system.Registry, cfg Config, opts ...Option) *testEnv {
	t.Helper()
	base := t.TempDir()
	env := &testEnv{
		db:      setupTestDB(t),
		root:    filepath.Join(base, "library"),
		scratch: filepath.Join(base, "scratch"),
		src:     filepath.Join(base, "src"),
	}
	require.NoError(t, os.MkdirAll(env.src, 0755))

	if registry == nil {
		registry = system.Default()
	}
	cfg.LibraryRoot = env.root
	cfg.ScratchRoot = env.scratch
	env.coord = New(env.db, registry, cfg, testLogger(), opts...)
	return env
}

// write creates a source file and returns its path.
func (e *testEnv) write(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(e.src, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// gamesDir lists the canonical game directory; a missing directory is empty.
func (e *testEnv) gamesDir(t *testing.T) []string {
	t.Helper()
	return listDir(t, filepath.Join(e.root, string(KindGames)))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type zipEntry struct {
	name    string
	content string
}

// writeZip creates a zip archive at path with the entries in order.
// Names ending in "/" become directory entries.
func writeZip(t *testing.T, path string, entries ...zipEntry) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		if e.content != "" {
			_, err = w.Write([]byte(e.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return path
}

// writeSkin creates a .deltaskin package with the given manifest.
func writeSkin(t *testing.T, path string, manifest SkinManifest, extra string) string {
	t.Helper()
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	return writeZip(t, path,
		zipEntry{name: "info.json", content: string(data)},
		zipEntry{name: "portrait.pdf", content: extra},
	)
}

func hashOf(t *testing.T, path string) string {
	t.Helper()
	id, err := HashFile(path)
	require.NoError(t, err)
	return string(id)
}
