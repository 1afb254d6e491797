// Package pubsub provides a generic publish/subscribe event system used to
// fan highlight snapshots, state transitions, and log entries out to
// observers (the TUI, tests, debug tooling).
package pubsub

import (
	"context"
	"time"
)

// EventType labels what a published event carries.
type EventType string

const (
	// SnapshotEvent carries a new highlight snapshot (lines + state).
	SnapshotEvent EventType = "snapshot"
	// StateEvent carries a controller state transition.
	StateEvent EventType = "state"
	// LogEvent carries a formatted log entry.
	LogEvent EventType = "log"
)

// Event is a published event with a typed payload. Seq is a per-broker
// monotonic sequence number; subscribers on a full channel lose events, and
// gaps in Seq let them detect that.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
