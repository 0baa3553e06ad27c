package events

import (
	"time"

	"gamebook-engine/pkg/store"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DECISION_RECORDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const TypeDecisionRecorded = "DECISION_RECORDED"

// NewDecisionRecorded wraps a trace entry for the event bus.
func NewDecisionRecorded(entry store.TraceEntry) Event {
	return BaseEvent{
		Type: TypeDecisionRecorded,
		Data: map[string]interface{}{
			"seq":       entry.Seq,
			"section":   entry.Section,
			"action":    entry.Action,
			"outcome":   entry.Outcome,
			"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
		},
		OccurredAt: entry.Timestamp,
	}
}
