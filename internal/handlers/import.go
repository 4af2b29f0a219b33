// internal/handlers/import.go
package handlers

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/romshelf/internal/events"
	"github.com/vmunix/romshelf/internal/importer"
	"github.com/vmunix/romshelf/internal/system"
)

// DefaultBatchWindow is how long detected files are collected before a batch is submitted.
const DefaultBatchWindow = 500 * time.Millisecond

// Submitter queues a batch for import. *importer.Coordinator satisfies it.
type Submitter interface {
	Submit(ctx context.Context, batch *importer.Batch, done func(*importer.Result))
}

// ImportHandler turns inbox.file_detected events into import batches.
type ImportHandler struct {
	*BaseHandler
	importer Submitter
	window   time.Duration

	// Per-path lock so a file is never in two batches at once
	importing sync.Map // map[string]bool
}

// NewImportHandler creates a new import handler.
func NewImportHandler(bus *events.Bus, imp Submitter, window time.Duration, logger *slog.Logger) *ImportHandler {
	if window <= 0 {
		window = DefaultBatchWindow
	}
	return &ImportHandler{
		BaseHandler: NewBaseHandler(bus, logger, "import-handler"),
		importer:    imp,
		window:      window,
	}
}

// Name returns the handler name.
func (h *ImportHandler) Name() string {
	return "import"
}

// Start begins processing events.
func (h *ImportHandler) Start(ctx context.Context) error {
	detected := h.Bus().Subscribe(events.EventInboxFileDetected, 100)
	defer h.Bus().Unsubscribe(detected)

	var (
		pending []string
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case e, ok := <-detected:
			if !ok || e == nil {
				return nil // Channel closed
			}
			fd, ok := e.(*events.InboxFileDetected)
			if !ok {
				continue
			}
			pending = append(pending, fd.Path)
			if fire == nil {
				timer = time.NewTimer(h.window)
				fire = timer.C
			}

		case <-fire:
			h.submit(ctx, pending)
			pending = nil
			fire = nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// submit splits paths into a games batch and a skins batch.
func (h *ImportHandler) submit(ctx context.Context, paths []string) {
	var games, skins []string
	for _, p := range paths {
		if _, loaded := h.importing.LoadOrStore(p, true); loaded {
			h.Logger().Debug("import already in progress", "path", p)
			continue
		}
		if isSkin(p) {
			skins = append(skins, p)
		} else {
			games = append(games, p)
		}
	}

	for _, group := range []struct {
		kind  importer.BatchKind
		paths []string
	}{
		{importer.KindGames, games},
		{importer.KindSkins, skins},
	} {
		if len(group.paths) == 0 {
			continue
		}
		batch := importer.NewBatch(group.kind, group.paths...)
		h.Logger().Info("submitting inbox batch",
			"batch_id", batch.ID,
			"kind", group.kind,
			"files", len(group.paths))

		locked := group.paths
		h.importer.Submit(ctx, batch, func(res *importer.Result) {
			for _, p := range locked {
				h.importing.Delete(p)
			}
			h.logResult(res)
		})
	}
}

func (h *ImportHandler) logResult(res *importer.Result) {
	if res == nil {
		return
	}
	for _, ierr := range res.Errors {
		h.Logger().Warn("inbox import failed",
			"batch_id", res.BatchID,
			"kind", ierr.Kind,
			"paths", ierr.Locations(),
			"error", ierr.Cause)
	}
	h.Logger().Info("inbox batch finished",
		"batch_id", res.BatchID,
		"imported", res.Imported(),
		"created", len(res.Created),
		"errors", len(res.Errors))
}

func isSkin(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ext == system.SkinExtension
}
