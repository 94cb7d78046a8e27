package bus

import "time"

// Event kinds published inside a huddle process.
const (
	// StoreAppended is published by the sqlite store after a record is committed.
	StoreAppended = "store.appended"
	// SyncSnapshot carries the number of messages in the latest applied snapshot.
	SyncSnapshot = "sync.snapshot"
	// SyncState carries a status.StateChange for the sync engine.
	SyncState = "sync.state"
	// NotifyDelivered carries the notify.Content that reached a dispatcher.
	NotifyDelivered = "notify.delivered"
	// BackgroundRun carries the background.Result of a scheduled run.
	BackgroundRun = "background.run"
	// OutboxSent carries the id the store assigned to a submitted message.
	OutboxSent = "outbox.sent"
	// OutboxFailed carries the error of a failed append.
	OutboxFailed = "outbox.failed"
)

// Event is a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
