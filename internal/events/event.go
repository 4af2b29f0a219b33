// Package events provides the typed event bus and its SQLite-backed log.
package events

import "time"

// Event is the base interface all events implement.
type Event interface {
	EventType() string
	EntityType() string // "batch", "game", "skin", "inbox"
	EntityID() string
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        string    `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() string      { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(eventType, entityType, entityID string) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Entity:    entityType,
		ID:        entityID,
		Timestamp: time.Now(),
	}
}

// Entity types
const (
	EntityBatch = "batch"
	EntityGame  = "game"
	EntitySkin  = "skin"
	EntityInbox = "inbox"
)

// Event type constants
const (
	EventBatchStarted      = "import.batch_started"
	EventBatchCompleted    = "import.batch_completed"
	EventGamesImported     = "library.games_imported"
	EventSkinsImported     = "library.skins_imported"
	EventEntryRemoved      = "library.entry_removed"
	EventInboxFileDetected = "inbox.file_detected"
)
