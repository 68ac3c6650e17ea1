// Package events carries recording progress events from the upload pipeline
// to asynchronous consumers (MQTT, notifications) without blocking requests.
package events

import "time"

// EventType names a progress event.
type EventType string

const (
	// RecordingCommitted is published after a recording enters the ledger.
	RecordingCommitted EventType = "recording_committed"
	// DialectCompleted is published when the last sentence of a dialect is recorded.
	DialectCompleted EventType = "dialect_completed"
	// DialectReset is published after an administrative wipe of a dialect.
	DialectReset EventType = "dialect_reset"
)

// ProgressEvent describes a change in the progress of one dialect.
type ProgressEvent struct {
	Type          EventType `json:"type"`
	Dialect       string    `json:"dialect"`
	SentenceID    int       `json:"sentenceId,omitempty"`
	SequenceIndex int       `json:"sequenceIndex,omitempty"`
	Filename      string    `json:"filename,omitempty"`
	Recorded      int       `json:"recorded"`
	Total         int       `json:"total"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`

	// Details carries per-type extras, for example wipe results
	Details map[string]any `json:"details,omitempty"`
}

// Consumer processes progress events.
type Consumer interface {
	// Name identifies the consumer in logs
	Name() string
	// ProcessEvent handles one event. Errors are logged and counted, never retried.
	ProcessEvent(event ProgressEvent) error
}

// Publisher accepts events without blocking.
type Publisher interface {
	TryPublish(event ProgressEvent) bool
}

// Stats contains runtime statistics for monitoring.
type Stats struct {
	EventsReceived  uint64 `json:"eventsReceived"`
	EventsProcessed uint64 `json:"eventsProcessed"`
	EventsDropped   uint64 `json:"eventsDropped"`
	ConsumerErrors  uint64 `json:"consumerErrors"`
}

// DropObserver is notified when an event is dropped because the buffer is full.
type DropObserver interface {
	EventDropped(eventType string)
}
