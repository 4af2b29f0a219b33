package events

// BatchStarted is emitted when the import pipeline accepts a batch.
type BatchStarted struct {
	BaseEvent
	BatchID    string   `json:"batch_id"`
	Kind       string   `json:"kind"` // "games" or "skins"
	References []string `json:"references"`
}

// ImportFailure summarizes one failed reference group of a batch.
type ImportFailure struct {
	Kind       string   `json:"kind"` // does_not_exist, invalid, unsupported, unknown, save_failed
	References []string `json:"references"`
	Reason     string   `json:"reason,omitempty"`
}

// BatchCompleted is emitted once per batch, after persistence.
type BatchCompleted struct {
	BaseEvent
	BatchID    string          `json:"batch_id"`
	Kind       string          `json:"kind"`
	Imported   []string        `json:"imported"` // identities, including duplicates
	Created    []string        `json:"created"`  // identities new to the library
	Failures   []ImportFailure `json:"failures,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// Succeeded reports whether the batch imported anything.
func (e *BatchCompleted) Succeeded() bool {
	return len(e.Imported) > 0
}

// FailureCount returns the number of failure groups.
func (e *BatchCompleted) FailureCount() int {
	return len(e.Failures)
}
