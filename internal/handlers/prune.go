package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vmunix/romshelf/internal/events"
)

// Pruner deletes old events. *events.EventLog satisfies it.
type Pruner interface {
	Prune(olderThan time.Duration) (int64, error)
}

// PruneHandler drops events older than the retention on a cron schedule.
type PruneHandler struct {
	*BaseHandler
	pruner    Pruner
	schedule  string
	retention time.Duration
}

// NewPruneHandler creates a prune handler. schedule is a five-field cron expression.
func NewPruneHandler(bus *events.Bus, pruner Pruner, schedule string, retention time.Duration, logger *slog.Logger) *PruneHandler {
	return &PruneHandler{
		BaseHandler: NewBaseHandler(bus, logger, "prune"),
		pruner:      pruner,
		schedule:    schedule,
		retention:   retention,
	}
}

// Name returns the handler name.
func (h *PruneHandler) Name() string {
	return "prune"
}

// Start schedules pruning and blocks until ctx is canceled.
// A run in progress finishes before Start returns.
func (h *PruneHandler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(h.schedule, h.Prune); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", h.schedule, err)
	}
	c.Start()
	h.Logger().Info("event pruning scheduled", "schedule", h.schedule, "retention", h.retention)

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// Prune runs one pruning pass.
func (h *PruneHandler) Prune() {
	n, err := h.pruner.Prune(h.retention)
	if err != nil {
		h.Logger().Error("failed to prune events", "error", err)
		return
	}
	if n > 0 {
		h.Logger().Info("pruned events", "deleted", n, "older_than", h.retention)
	}
}
