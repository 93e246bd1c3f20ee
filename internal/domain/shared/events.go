// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the notification side effects that
// accompany workflow transitions.
const (
	// Application lifecycle events
	EventApplicationCreated   EventType = "application.created"
	EventApplicationSubmitted EventType = "application.submitted"
	EventApplicationUpdated   EventType = "application.updated"
	EventApplicationCancelled EventType = "application.cancelled"
	EventStatusChanged        EventType = "application.status_changed"
	EventProfessorReviewed    EventType = "application.professor_reviewed"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// AggregateID returns the ID of the aggregate that produced the event.
	AggregateID() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// Payload returns the event data for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single event. Handlers are best-effort: returning
// an error is logged by the bus, never propagated to the publisher.
type EventHandler func(event Event) error

// EventBus publishes events to subscribed handlers.
type EventBus interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Publish sends an event to all subscribed handlers.
	Publish(event Event) error

	// Close gracefully shuts down the bus.
	Close() error
}

// EventPublisher is the narrow publishing side of the bus, for handlers that
// only emit events.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides a reusable Event implementation for concrete events.
type BaseEvent struct {
	Type        EventType
	Aggregate   string
	Timestamp   time.Time
	EventFields map[string]interface{}
}

// NewBaseEvent creates a base event stamped with the current UTC time.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Aggregate:   aggregateID,
		Timestamp:   time.Now().UTC(),
		EventFields: make(map[string]interface{}),
	}
}

// EventType returns the type of the event.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// AggregateID returns the aggregate ID.
func (e BaseEvent) AggregateID() string {
	return e.Aggregate
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// Payload returns the event data.
func (e BaseEvent) Payload() map[string]interface{} {
	return e.EventFields
}

// WithField attaches a payload field and returns the event for chaining.
func (e BaseEvent) WithField(key string, value interface{}) BaseEvent {
	if e.EventFields == nil {
		e.EventFields = make(map[string]interface{})
	}
	e.EventFields[key] = value
	return e
}

// Clock abstracts time for components that gate on the current moment
// (application windows, timestamps). Production code uses SystemClock;
// tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real current time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
