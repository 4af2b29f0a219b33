// Package server provides the event-driven server components.
package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vmunix/romshelf/internal/handlers"
	"github.com/vmunix/romshelf/internal/inbox"
	"golang.org/x/sync/errgroup"
)

// Runner manages the event-driven components.
type Runner struct {
	app      *App
	handlers []handlers.Handler
	logger   *slog.Logger
}

// NewRunner creates a runner. When the inbox is enabled the watcher and
// import handler are started; a positive event retention adds the pruner.
func NewRunner(app *App, logger *slog.Logger, extra ...handlers.Handler) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{app: app, logger: logger}

	if cfg := app.Config.Inbox; cfg.Enabled {
		r.handlers = append(r.handlers,
			inbox.NewWatcher(cfg.Path, cfg.Settle, app.Bus, logger),
			handlers.NewImportHandler(app.Bus, app.Importer, 0, logger),
		)
	}
	if ev := app.Config.Events; ev.Retention > 0 {
		r.handlers = append(r.handlers,
			handlers.NewPruneHandler(app.Bus, app.EventLog, ev.PruneSchedule, ev.Retention, logger))
	}
	r.handlers = append(r.handlers, extra...)
	return r
}

// Handlers returns the components the runner will start.
func (r *Runner) Handlers() []handlers.Handler {
	return r.handlers
}

// Run starts all event-driven components.
// It blocks until the context is canceled or a component fails, then
// waits for in-flight imports to finish.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, h := range r.handlers {
		g.Go(func() error {
			r.logger.Info("starting component", "name", h.Name())
			err := h.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				r.logger.Error("component failed", "name", h.Name(), "error", err)
			}
			return err
		})
	}
	if len(r.handlers) == 0 {
		r.logger.Warn("no components enabled; waiting for shutdown")
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	}

	err := g.Wait()
	r.app.Importer.Wait()
	return err
}
