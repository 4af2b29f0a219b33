package events

// InboxFileDetected is emitted when a file settles in the watched inbox.
type InboxFileDetected struct {
	BaseEvent
	Path string `json:"path"`
	Size int64  `json:"size"`
}
