// Package events carries admissions milestones between modules. The workflow
// publishes, the CRM sync layer subscribes; neither imports the other.
package events

import (
	"context"
	"time"
)

// Event is implemented by every milestone published on the bus.
type Event interface {
	// EventName identifies the milestone, e.g. "admissions.identity.verified".
	EventName() string
	// OccurredAt returns when the milestone was reached.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp; milestone structs embed it.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a milestone with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes milestones of one event name. Handlers absorb their own
// failures: a returned error is logged by the bus, never surfaced to the
// publisher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus connects milestone publishers to their subscribers.
type Bus interface {
	// Publish dispatches asynchronously. The admissions workflow uses this
	// path so a slow or failing subscriber cannot block it.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits for every handler, joining errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the event name returned by the
	// milestone's EventName.
	Subscribe(eventName string, handler Handler)
}
