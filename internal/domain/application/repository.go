package application

import (
	"context"
	"time"
)

// Repository defines persistence operations for applications. The duplicate
// guard and the status transition are the two operations that must hit the
// authoritative store; everything else may be served stale.
type Repository interface {
	// Create persists a new application. A unique-constraint violation on
	// (student, scholarship, active status) surfaces as
	// ErrDuplicateApplication.
	Create(ctx context.Context, a *Application) error

	// GetByID returns an application with its review trails loaded.
	GetByID(ctx context.Context, id string) (*Application, error)

	// ListByStudent returns a student's applications, newest first.
	ListByStudent(ctx context.Context, studentID string) ([]*Application, error)

	// ListByScholarship returns applications for a scholarship, optionally
	// filtered by status (empty status means all).
	ListByScholarship(ctx context.Context, scholarshipID string, status Status) ([]*Application, error)

	// ListForProfessor returns reviewable applications assigned to the
	// professor.
	ListForProfessor(ctx context.Context, professorID string) ([]*Application, error)

	// Update persists form/document changes on a draft.
	Update(ctx context.Context, a *Application) error

	// UpdateStatus persists a transition with an expected-status
	// precondition. If the stored status no longer equals expected, nothing
	// is written and ErrStatusConflict is returned. The status, its
	// timestamps, and any review records the transition appended commit as
	// one atomic unit.
	UpdateStatus(ctx context.Context, a *Application, expected Status) error

	// HasActiveApplication reports whether the student already has an
	// application for the scholarship in an active (non-draft, non-terminal)
	// status. Must read the authoritative store.
	HasActiveApplication(ctx context.Context, studentID, scholarshipCode string) (bool, error)

	// CountForYear returns the number of the student's non-cancelled
	// applications for the scholarship in the given academic year.
	CountForYear(ctx context.Context, studentID, scholarshipCode string, year int) (int, error)

	// AddReview appends a staff review record.
	AddReview(ctx context.Context, review Review) error

	// AddProfessorReview appends a professor recommendation record.
	AddProfessorReview(ctx context.Context, review ProfessorReview) error

	// ListSubmittedBefore returns applications submitted before the cutoff
	// that are still awaiting review, for deadline reminders.
	ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]*Application, error)
}
