// Package notification defines the outbound notification value object and
// the dispatcher port. Dispatch is always best-effort: failures are logged
// and retried, never surfaced to the request that triggered them.
package notification

import (
	"context"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// Priority orders notifications for delivery and display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks that the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// ResourceKind names the resource a notification links back to.
type ResourceKind string

const (
	ResourceApplication ResourceKind = "application"
	ResourceScholarship ResourceKind = "scholarship"
)

// RelatedResource points the recipient at the object the notification is
// about.
type RelatedResource struct {
	Kind ResourceKind
	ID   string
}

// Notification is one outbound message to one recipient.
type Notification struct {
	// RecipientID - the user receiving the message.
	RecipientID string

	// Title / Message - display text, already localized by the producer.
	Title   string
	Message string

	// Priority - delivery and display priority.
	Priority Priority

	// Related - the resource the message is about.
	Related RelatedResource

	// CreatedAt - when the notification was produced.
	CreatedAt time.Time
}

// Domain errors.
var (
	// ErrDispatchFailed - the delivery channel rejected the notification.
	ErrDispatchFailed = shared.NewDomainError("notification", "Dispatch", shared.ErrExternalService, "failed to dispatch notification")

	// ErrInvalidPriority - unknown priority value.
	ErrInvalidPriority = shared.NewDomainError("notification", "Validate", shared.ErrInvalidInput, "invalid notification priority")

	// ErrNoRecipient - a notification without a recipient is undeliverable.
	ErrNoRecipient = shared.NewDomainError("notification", "Validate", shared.ErrEmptyValue, "notification recipient is required")
)

// New builds a notification with validation.
func New(recipientID, title, message string, priority Priority, related RelatedResource) (Notification, error) {
	if recipientID == "" {
		return Notification{}, ErrNoRecipient
	}
	if !priority.IsValid() {
		return Notification{}, ErrInvalidPriority
	}
	return Notification{
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Priority:    priority,
		Related:     related,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Dispatcher delivers notifications. Implementations must be safe for
// concurrent use; callers treat every dispatch as fire-and-forget.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}
