package events

import (
	"context"
	"log/slog"
	"sync"
)

// subscription is one subscriber channel plus its delivery filter.
type subscription struct {
	ch        chan Event
	eventType string // empty matches every type
	match     func(Event) bool
}

func (s *subscription) wants(e Event) bool {
	if s.eventType != "" && s.eventType != e.EventType() {
		return false
	}
	return s.match == nil || s.match(e)
}

// Bus is the central event bus for pub/sub.
// Delivery never blocks the publisher: a full subscriber drops the event.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog // SQLite persistence (may be nil)
	logger *slog.Logger
	closed bool
}

// NewBus creates a new event bus.
// The EventLog is optional - pass nil to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		log:    log,
		logger: logger,
	}
}

// Publish persists the event (if a log is configured) and delivers it to
// every matching subscriber.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	if b.log != nil {
		if _, err := b.log.Append(e); err != nil {
			// Delivery matters more than persistence.
			b.logger.Error("failed to persist event", "type", e.EventType(), "error", err)
		}
	}

	for _, s := range b.subs {
		if !s.wants(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

func (b *Bus) subscribe(s *subscription) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	return s.ch
}

// Subscribe returns a channel for events of a specific type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	return b.subscribe(&subscription{ch: make(chan Event, bufferSize), eventType: eventType})
}

// SubscribeAll returns a channel for all events.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.subscribe(&subscription{ch: make(chan Event, bufferSize)})
}

// SubscribeEntity returns events for a specific entity.
func (b *Bus) SubscribeEntity(entityType, entityID string, bufferSize int) <-chan Event {
	return b.subscribe(&subscription{
		ch: make(chan Event, bufferSize),
		match: func(e Event) bool {
			return e.EntityType() == entityType && e.EntityID() == entityID
		},
	})
}

// Unsubscribe removes a subscription channel and closes it.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
