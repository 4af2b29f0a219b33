package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/romshelf/internal/config"
	"github.com/vmunix/romshelf/internal/library"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		Server:   config.ServerConfig{LogLevel: "debug"},
		Database: config.DatabaseConfig{Path: filepath.Join(base, "data", "romshelf.db")},
		Library: config.LibraryConfig{
			Root:    filepath.Join(base, "library"),
			Scratch: filepath.Join(base, "scratch"),
		},
		Import: config.ImportConfig{FetchConcurrency: 2, FetchTimeout: time.Second},
		Inbox: config.InboxConfig{
			Enabled: true,
			Path:    filepath.Join(base, "inbox"),
			Settle:  100 * time.Millisecond,
		},
	}
}

// stubHandler blocks until canceled, or fails immediately when err is set.
type stubHandler struct {
	name    string
	err     error
	started atomic.Bool
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Start(ctx context.Context) error {
	h.started.Store(true)
	if h.err != nil {
		return h.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestOpen_WiresComponents(t *testing.T) {
	cfg := testConfig(t)
	cfg.Artwork.Enabled = true

	app, err := Open(cfg, false, testLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.FileExists(t, cfg.Database.Path)
	assert.NotNil(t, app.Artwork)
	assert.NotNil(t, app.Importer)
	assert.Len(t, app.Registry.Systems(), 7)
}

func TestOpen_UnknownSystem(t *testing.T) {
	cfg := testConfig(t)
	cfg.Systems.Enabled = []string{"atari2600"}

	_, err := Open(cfg, false, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "systems")
}

func TestOpen_ArtworkDisabled(t *testing.T) {
	cfg := testConfig(t)

	app, err := Open(cfg, false, testLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Artwork)
}

func TestNewRunner_InboxDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inbox.Enabled = false
	app, err := Open(cfg, true, testLogger())
	require.NoError(t, err)
	defer app.Close()

	r := NewRunner(app, testLogger())
	assert.Empty(t, r.Handlers())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestRunner_CancelIsClean(t *testing.T) {
	cfg := testConfig(t)
	app, err := Open(cfg, true, testLogger())
	require.NoError(t, err)
	defer app.Close()

	extra := &stubHandler{name: "extra"}
	r := NewRunner(app, testLogger(), extra)
	names := make([]string, 0, len(r.Handlers()))
	for _, h := range r.Handlers() {
		names = append(names, h.Name())
	}
	assert.Equal(t, []string{"inbox", "import", "extra"}, names)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, extra.started.Load, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_ComponentFailureStopsAll(t *testing.T) {
	cfg := testConfig(t)
	app, err := Open(cfg, true, testLogger())
	require.NoError(t, err)
	defer app.Close()

	boom := errors.New("boom")
	r := NewRunner(app, testLogger(), &stubHandler{name: "broken", err: boom})

	select {
	case err := <-runAsync(r):
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_ImportsFromInbox(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Inbox.Path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Inbox.Path, "mario.nes"), []byte("NES mario"), 0644))

	app, err := Open(cfg, true, testLogger())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runAsyncCtx(ctx, NewRunner(app, testLogger()))

	require.Eventually(t, func() bool {
		games, _, err := app.Library.ListGames(library.GameFilter{})
		return err == nil && len(games) == 1
	}, 10*time.Second, 50*time.Millisecond)

	games, _, err := app.Library.ListGames(library.GameFilter{})
	require.NoError(t, err)
	assert.Equal(t, "nes", games[0].System)
	assert.Equal(t, "mario", games[0].Name)

	// The inbox daemon consumes its sources.
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(cfg.Inbox.Path, "mario.nes"))
		return os.IsNotExist(err)
	}, 5*time.Second, 50*time.Millisecond)
	assert.FileExists(t, filepath.Join(cfg.Library.Root, "games", games[0].Filename))

	cancel()
	assert.NoError(t, <-done)
}

func runAsync(r *Runner) <-chan error {
	return runAsyncCtx(context.Background(), r)
}

func runAsyncCtx(ctx context.Context, r *Runner) <-chan error {
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return done
}

func TestNewRunner_PruneWhenRetentionSet(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inbox.Enabled = false
	cfg.Events = config.EventsConfig{Retention: 24 * time.Hour, PruneSchedule: "0 4 * * *"}
	app, err := Open(cfg, true, testLogger())
	require.NoError(t, err)
	defer app.Close()

	r := NewRunner(app, testLogger())
	require.Len(t, r.Handlers(), 1)
	assert.Equal(t, "prune", r.Handlers()[0].Name())
}
