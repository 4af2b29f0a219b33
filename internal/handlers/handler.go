// internal/handlers/handler.go
package handlers

import (
	"context"
	"log/slog"

	"github.com/vmunix/romshelf/internal/events"
)

// Handler is a long-running component driven by the event bus.
// server.Runner starts every Handler in its own goroutine.
type Handler interface {
	// Start runs until ctx is canceled (blocking).
	Start(ctx context.Context) error

	// Name identifies the component in logs.
	Name() string
}

// BaseHandler carries the bus and a component-scoped logger.
type BaseHandler struct {
	bus    *events.Bus
	logger *slog.Logger
}

// NewBaseHandler creates a base handler logging as component.
func NewBaseHandler(bus *events.Bus, logger *slog.Logger, component string) *BaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseHandler{
		bus:    bus,
		logger: logger.With("component", component),
	}
}

// Bus returns the event bus.
func (h *BaseHandler) Bus() *events.Bus {
	return h.bus
}

// Logger returns the handler's logger.
func (h *BaseHandler) Logger() *slog.Logger {
	return h.logger
}

// Publish sends e on the bus; failures are logged, not returned.
func (h *BaseHandler) Publish(ctx context.Context, e events.Event) {
	if err := h.bus.Publish(ctx, e); err != nil {
		h.logger.Error("failed to publish event", "type", e.EventType(), "error", err)
	}
}
