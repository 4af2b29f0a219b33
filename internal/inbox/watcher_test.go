package inbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/romshelf/internal/events"
)

func startWatcher(t *testing.T, dir string) (<-chan events.Event, context.CancelFunc) {
	t.Helper()
	bus := events.NewBus(nil, nil)
	t.Cleanup(func() { _ = bus.Close() })
	ch := bus.Subscribe(events.EventInboxFileDetected, 16)

	w := NewWatcher(dir, 100*time.Millisecond, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ch, cancel
}

func waitDetected(t *testing.T, ch <-chan events.Event) *events.InboxFileDetected {
	t.Helper()
	select {
	case e := <-ch:
		detected, ok := e.(*events.InboxFileDetected)
		require.True(t, ok, "unexpected event %T", e)
		return detected
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for inbox event")
		return nil
	}
}

func TestWatcher_ExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mario.nes")
	require.NoError(t, os.WriteFile(path, []byte("NES"), 0644))

	ch, _ := startWatcher(t, dir)

	detected := waitDetected(t, ch)
	assert.Equal(t, path, detected.Path)
	assert.Equal(t, int64(3), detected.Size)
	assert.Equal(t, events.EntityInbox, detected.EntityType())
}

func TestWatcher_NewFile(t *testing.T) {
	dir := t.TempDir()
	ch, _ := startWatcher(t, dir)
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "zelda.nes")
	require.NoError(t, os.WriteFile(path, []byte("zelda"), 0644))

	detected := waitDetected(t, ch)
	assert.Equal(t, path, detected.Path)
	assert.Equal(t, int64(5), detected.Size)
}

func TestWatcher_SkipsPartialAndHidden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pokemon.gba.part"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metroid.gba.crdownload"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tetris.gb"), []byte("x"), 0644))

	ch, _ := startWatcher(t, dir)

	detected := waitDetected(t, ch)
	assert.Equal(t, filepath.Join(dir, "tetris.gb"), detected.Path)

	select {
	case e := <-ch:
		t.Fatalf("unexpected extra event for %s", e.EntityID())
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_RenamedIntoPlace(t *testing.T) {
	dir := t.TempDir()
	ch, _ := startWatcher(t, dir)
	time.Sleep(50 * time.Millisecond)

	partial := filepath.Join(dir, "kirby.gb.part")
	require.NoError(t, os.WriteFile(partial, []byte("kirby"), 0644))
	final := filepath.Join(dir, "kirby.gb")
	require.NoError(t, os.Rename(partial, final))

	detected := waitDetected(t, ch)
	assert.Equal(t, final, detected.Path)
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, time.Second, events.NewBus(nil, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "inbox", w.Name())
}

func TestWatcher_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "inbox")
	w := NewWatcher(dir, time.Second, events.NewBus(nil, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = w.Start(ctx)
	assert.DirExists(t, dir)
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"mario.nes", true},
		{"bundle.zip", true},
		{"skin.deltaskin", true},
		{".hidden", false},
		{"game.part", false},
		{"GAME.CRDOWNLOAD", false},
		{"x.tmp", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, candidate(tt.name))
		})
	}
}
