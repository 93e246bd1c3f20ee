package application

import (
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// Concrete workflow events. Each one is published after the corresponding
// state change commits; handlers drive best-effort notifications off them.

// CreatedEvent - an application entered draft.
type CreatedEvent struct {
	shared.BaseEvent
}

// NewCreatedEvent builds the event for a freshly created application.
func NewCreatedEvent(a *Application) CreatedEvent {
	return CreatedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventApplicationCreated, a.ID).
			WithField("student_id", a.StudentID).
			WithField("scholarship_code", a.ScholarshipCode),
	}
}

// SubmittedEvent - a draft was submitted for review.
type SubmittedEvent struct {
	shared.BaseEvent
}

// NewSubmittedEvent builds the event for a submission.
func NewSubmittedEvent(a *Application) SubmittedEvent {
	return SubmittedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventApplicationSubmitted, a.ID).
			WithField("student_id", a.StudentID).
			WithField("scholarship_code", a.ScholarshipCode).
			WithField("professor_id", a.ProfessorID),
	}
}

// StatusChangedEvent - a staff status update was applied.
type StatusChangedEvent struct {
	shared.BaseEvent
}

// NewStatusChangedEvent builds the event for a status change.
func NewStatusChangedEvent(a *Application, from Status) StatusChangedEvent {
	return StatusChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStatusChanged, a.ID).
			WithField("student_id", a.StudentID).
			WithField("scholarship_code", a.ScholarshipCode).
			WithField("from_status", string(from)).
			WithField("to_status", string(a.Status)).
			WithField("reviewer_id", a.ReviewerID),
	}
}

// CancelledEvent - the student withdrew the application.
type CancelledEvent struct {
	shared.BaseEvent
}

// NewCancelledEvent builds the event for a cancellation.
func NewCancelledEvent(a *Application) CancelledEvent {
	return CancelledEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventApplicationCancelled, a.ID).
			WithField("student_id", a.StudentID).
			WithField("scholarship_code", a.ScholarshipCode),
	}
}

// ProfessorReviewedEvent - the assigned professor filed a recommendation.
type ProfessorReviewedEvent struct {
	shared.BaseEvent
}

// NewProfessorReviewedEvent builds the event for a professor review.
func NewProfessorReviewedEvent(a *Application, review ProfessorReview) ProfessorReviewedEvent {
	return ProfessorReviewedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventProfessorReviewed, a.ID).
			WithField("student_id", a.StudentID).
			WithField("scholarship_code", a.ScholarshipCode).
			WithField("professor_id", review.ProfessorID).
			WithField("selected_awards", review.SelectedAwards).
			WithField("resulting_status", string(a.Status)),
	}
}
