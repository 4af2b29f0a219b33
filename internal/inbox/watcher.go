// Package inbox watches a drop directory and announces files once they settle.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vmunix/romshelf/internal/events"
	"github.com/vmunix/romshelf/internal/handlers"
)

// partialSuffixes mark files still being written by browsers and sync clients.
var partialSuffixes = []string{".part", ".crdownload", ".download", ".tmp"}

// Watcher publishes inbox.file_detected for every file in dir whose size
// has not changed for the settle duration.
type Watcher struct {
	*handlers.BaseHandler
	dir    string
	settle time.Duration
	tick   time.Duration
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, settle time.Duration, bus *events.Bus, log *slog.Logger) *Watcher {
	tick := settle / 4
	if tick < 50*time.Millisecond {
		tick = 50 * time.Millisecond
	}
	return &Watcher{
		BaseHandler: handlers.NewBaseHandler(bus, log, "inbox"),
		dir:         dir,
		settle:      settle,
		tick:        tick,
	}
}

// Name returns the component name.
func (w *Watcher) Name() string { return "inbox" }

// pendingFile tracks a file that has not settled yet.
type pendingFile struct {
	seen time.Time
	size int64
}

// Start watches until ctx is canceled. Files already present are announced
// once they settle, like new arrivals.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch inbox directory: %w", err)
	}
	w.Logger().Info("watching inbox", "path", w.dir, "settle", w.settle)

	pending := make(map[string]*pendingFile)
	existing, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan inbox: %w", err)
	}
	for _, entry := range existing {
		if entry.Type().IsRegular() && candidate(entry.Name()) {
			pending[filepath.Join(w.dir, entry.Name())] = &pendingFile{seen: time.Now(), size: -1}
		}
	}

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !candidate(filepath.Base(event.Name)) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, event.Name)
			case event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Chmod) != 0:
				if p, ok := pending[event.Name]; ok {
					p.seen = time.Now()
				} else {
					pending[event.Name] = &pendingFile{seen: time.Now(), size: -1}
				}
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger().Warn("inbox watcher error", "error", watchErr)

		case <-ticker.C:
			w.flush(ctx, pending)
		}
	}
}

// flush announces settled files and drops vanished ones.
func (w *Watcher) flush(ctx context.Context, pending map[string]*pendingFile) {
	now := time.Now()
	for path, p := range pending {
		if now.Sub(p.seen) < w.settle {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			delete(pending, path)
			continue
		}
		if info.Size() != p.size {
			// Still growing; wait another settle period.
			p.size = info.Size()
			p.seen = now
			continue
		}

		delete(pending, path)
		w.Logger().Debug("file settled", "path", path, "size", info.Size())
		w.Publish(ctx, &events.InboxFileDetected{
			BaseEvent: events.NewBaseEvent(events.EventInboxFileDetected, events.EntityInbox, path),
			Path:      path,
			Size:      info.Size(),
		})
	}
}

// candidate reports whether a filename may be imported.
func candidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}
