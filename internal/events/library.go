package events

// ImportedEntity describes one entity committed by a batch.
type ImportedEntity struct {
	Identity string `json:"identity"`
	System   string `json:"system"`
	Name     string `json:"name"`
	Created  bool   `json:"created"` // false when the entity already existed
}

// GamesImported is emitted after a game batch commits.
// Observers such as a "recently added" list subscribe to it.
type GamesImported struct {
	BaseEvent
	BatchID string           `json:"batch_id"`
	Games   []ImportedEntity `json:"games"`
}

// SkinsImported is emitted after a skin batch commits.
type SkinsImported struct {
	BaseEvent
	BatchID string           `json:"batch_id"`
	Skins   []ImportedEntity `json:"skins"`
}

// EntryRemoved is emitted after a game or skin is deleted from the library.
type EntryRemoved struct {
	BaseEvent
	Identity string `json:"identity"`
	System   string `json:"system"`
	Name     string `json:"name"`
}
