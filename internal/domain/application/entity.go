// Package application contains the scholarship application aggregate and its
// workflow state machine. All transition guards live here; the command layer
// orchestrates but never decides legality of a transition itself.
package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// WORKFLOW STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the application workflow status.
type Status string

const (
	// StatusDraft - created, editable by the student, not yet submitted.
	StatusDraft Status = "draft"
	// StatusSubmitted - handed to the review pipeline.
	StatusSubmitted Status = "submitted"
	// StatusUnderReview - a reviewer has picked it up.
	StatusUnderReview Status = "under_review"
	// StatusPendingRecommendation - waiting on the assigned professor.
	StatusPendingRecommendation Status = "pending_recommendation"
	// StatusRecommended - professor selected at least one award.
	StatusRecommended Status = "recommended"
	// StatusApproved - terminal success.
	StatusApproved Status = "approved"
	// StatusRejected - terminal refusal; carries a rejection reason.
	StatusRejected Status = "rejected"
	// StatusCancelled - terminal withdrawal by the student.
	StatusCancelled Status = "cancelled"
)

// transitions is the complete workflow graph. Every reviewable status admits
// a direct decision: staff may approve or reject without first walking the
// application through under_review or recommended, and a professor review may
// land on a submitted application. No transition re-enters draft.
var transitions = map[Status][]Status{
	StatusDraft:                 {StatusSubmitted, StatusCancelled},
	StatusSubmitted:             {StatusUnderReview, StatusPendingRecommendation, StatusRecommended, StatusApproved, StatusRejected, StatusCancelled},
	StatusUnderReview:           {StatusPendingRecommendation, StatusRecommended, StatusApproved, StatusRejected, StatusCancelled},
	StatusPendingRecommendation: {StatusRecommended},
	StatusRecommended:           {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:              {},
	StatusRejected:              {},
	StatusCancelled:             {},
}

// IsValid checks that the status is a known value.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo returns true if the workflow graph allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsEditable is true only in draft. Submitted applications are frozen.
func (s Status) IsEditable() bool {
	return s == StatusDraft
}

// CanBeReviewed is true for the statuses a reviewer may act on.
func (s Status) CanBeReviewed() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusRecommended:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for statuses with no outgoing transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// ActiveStatuses are the statuses that count as an existing application for
// the duplicate-application guard. Draft and terminal statuses do not block
// a new application.
var ActiveStatuses = []Status{
	StatusSubmitted,
	StatusUnderReview,
	StatusPendingRecommendation,
	StatusRecommended,
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrApplicationNotFound - application does not exist.
	ErrApplicationNotFound = shared.NewDomainError("application", "Find", shared.ErrNotFound, "application not found")

	// ErrNotDraft - only draft applications are editable.
	ErrNotDraft = shared.NewDomainError("application", "Update", shared.ErrNotEditable, "application can only be edited in draft")

	// ErrNotOwned - the acting student does not own the application.
	ErrNotOwned = shared.NewDomainError("application", "Authorize", shared.ErrForbidden, "application belongs to another student")

	// ErrNotAssignedProfessor - the acting professor is not assigned.
	ErrNotAssignedProfessor = shared.NewDomainError("application", "Authorize", shared.ErrForbidden, "professor is not assigned to this application")

	// ErrNotReviewable - the status does not admit review operations.
	ErrNotReviewable = shared.NewDomainError("application", "Review", shared.ErrInvalidState, "application cannot be reviewed in its current status")

	// ErrIllegalTransition - the workflow graph forbids the move.
	ErrIllegalTransition = shared.NewDomainError("application", "Transition", shared.ErrStateTransition, "status transition is not allowed")

	// ErrDuplicateApplication - an active application already exists for the
	// same student and scholarship.
	ErrDuplicateApplication = shared.NewDomainError("application", "Create", shared.ErrConflict, "an active application already exists for this scholarship")

	// ErrStatusConflict - the status changed between read and write.
	ErrStatusConflict = shared.NewDomainError("application", "UpdateStatus", shared.ErrStaleStatus, "application status changed concurrently")

	// ErrRejectionReasonNeeded - rejecting requires an explicit reason.
	ErrRejectionReasonNeeded = shared.NewDomainError("application", "Reject", shared.ErrInvalidInput, "rejection requires a reason")

	// ErrMissingRequiredFields - the form payload misses required entries.
	ErrMissingRequiredFields = shared.NewDomainError("application", "Submit", shared.ErrValidation, "required form fields or documents are missing")

	// ErrApplicationCancelled - terminal, nothing further may happen.
	ErrApplicationCancelled = shared.NewDomainError("application", "Transition", shared.ErrInvalidState, "application is cancelled")
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Application is the aggregate root for one student's application to one
// scholarship. It owns its reviews, documents, and the frozen academic
// snapshot taken at creation time.
type Application struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// StudentID / StudentNo - the applying student.
	StudentID string
	StudentNo student.StudentNo

	// ScholarshipID / ScholarshipCode - the target scholarship.
	ScholarshipID   string
	ScholarshipCode string

	// SubTypeCodes - selected scholarship sub-types, if any.
	SubTypeCodes []string

	// AcademicYear - the academic year the application counts against.
	AcademicYear int

	// Snapshot - the academic record frozen at creation. Never recomputed.
	Snapshot student.AcademicSnapshot

	// FormData - the student's form payload, schema owned elsewhere.
	FormData map[string]string

	// Documents - uploaded document slots, keyed by slot name.
	Documents map[string]string

	// Status - current workflow status.
	Status Status

	// ProfessorID - the professor assigned for recommendation, if any.
	ProfessorID string

	// ReviewerID - the staff member who last changed the status.
	ReviewerID string

	// Comments - reviewer comments from the last status change.
	Comments string

	// RejectionReason - required when status is rejected.
	RejectionReason string

	// Reviews - staff review trail, append-only.
	Reviews []Review

	// ProfessorReviews - professor recommendation trail, append-only.
	ProfessorReviews []ProfessorReview

	// Timestamps. SubmittedAt, ReviewedAt, ApprovedAt are set by the
	// corresponding transitions and never cleared.
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	ApprovedAt  *time.Time
}

// Review is one staff status-change record.
type Review struct {
	ID            string
	ApplicationID string
	ReviewerID    string
	FromStatus    Status
	ToStatus      Status
	Comments      string
	CreatedAt     time.Time
}

// ProfessorReview is one professor recommendation record.
type ProfessorReview struct {
	ID             string
	ApplicationID  string
	ProfessorID    string
	SelectedAwards []string
	Recommendation string
	CreatedAt      time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY
// ══════════════════════════════════════════════════════════════════════════════

// NewApplicationParams contains parameters for creating an application.
type NewApplicationParams struct {
	ID              string
	StudentID       string
	StudentNo       student.StudentNo
	ScholarshipID   string
	ScholarshipCode string
	SubTypeCodes    []string
	AcademicYear    int
	Snapshot        student.AcademicSnapshot
	FormData        map[string]string
	ProfessorID     string
}

// NewApplication creates an application in draft with its snapshot frozen.
// Eligibility is the caller's concern; the factory only validates structure.
func NewApplication(params NewApplicationParams) (*Application, error) {
	if params.ID == "" {
		return nil, errors.New("application id is required")
	}
	if params.StudentID == "" {
		return nil, errors.New("application student id is required")
	}
	if params.ScholarshipID == "" || params.ScholarshipCode == "" {
		return nil, errors.New("application scholarship reference is required")
	}
	if params.AcademicYear == 0 {
		return nil, errors.New("application academic year is required")
	}

	formData := params.FormData
	if formData == nil {
		formData = make(map[string]string)
	}

	now := time.Now().UTC()

	return &Application{
		ID:              params.ID,
		StudentID:       params.StudentID,
		StudentNo:       params.StudentNo,
		ScholarshipID:   params.ScholarshipID,
		ScholarshipCode: params.ScholarshipCode,
		SubTypeCodes:    params.SubTypeCodes,
		AcademicYear:    params.AcademicYear,
		Snapshot:        params.Snapshot,
		FormData:        formData,
		Documents:       make(map[string]string),
		Status:          StatusDraft,
		ProfessorID:     params.ProfessorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OWNERSHIP & GUARDS
// ══════════════════════════════════════════════════════════════════════════════

// IsOwnedBy returns true if the student owns this application.
func (a *Application) IsOwnedBy(studentID string) bool {
	return a.StudentID == studentID
}

// IsAssignedProfessor returns true if the professor is assigned to recommend.
func (a *Application) IsAssignedProfessor(professorID string) bool {
	return a.ProfessorID != "" && a.ProfessorID == professorID
}

// IsEditable returns true while the application is still a draft.
func (a *Application) IsEditable() bool {
	return a.Status.IsEditable()
}

// CanBeReviewed returns true while the status admits review operations.
func (a *Application) CanBeReviewed() bool {
	return a.Status.CanBeReviewed()
}

// MissingRequiredFields returns the required form fields and document slots
// that are absent or blank in the stored payload. The field definitions
// themselves belong to the scholarship configuration; this only checks
// required-but-absent.
func (a *Application) MissingRequiredFields(requiredFields, requiredDocuments []string) []string {
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(a.FormData[field]) == "" {
			missing = append(missing, field)
		}
	}
	for _, doc := range requiredDocuments {
		if strings.TrimSpace(a.Documents[doc]) == "" {
			missing = append(missing, doc)
		}
	}
	return missing
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITIONS
// Every mutation below is a guard followed by an in-memory state change; the
// repository persists the result atomically.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateForm replaces the form payload. Allowed only in draft.
func (a *Application) UpdateForm(formData map[string]string) error {
	if !a.IsEditable() {
		return ErrNotDraft
	}
	if formData == nil {
		formData = make(map[string]string)
	}
	a.FormData = formData
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// AttachDocument records an uploaded document slot. Allowed only in draft.
func (a *Application) AttachDocument(slot, fileRef string) error {
	if !a.IsEditable() {
		return ErrNotDraft
	}
	a.Documents[slot] = fileRef
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Submit moves draft to submitted after the required-field check, stamping
// SubmittedAt.
func (a *Application) Submit(requiredFields, requiredDocuments []string, at time.Time) error {
	if !a.IsEditable() {
		return ErrNotDraft
	}
	if missing := a.MissingRequiredFields(requiredFields, requiredDocuments); len(missing) > 0 {
		return shared.WrapError("application", "Submit", shared.ErrValidation,
			"required form fields or documents are missing",
			fmt.Errorf("missing: %s", strings.Join(missing, ", ")))
	}

	at = at.UTC()
	a.Status = StatusSubmitted
	a.SubmittedAt = &at
	a.UpdatedAt = at
	return nil
}

// Cancel withdraws the application. Legal from draft and every reviewable
// status; never from pending_recommendation or a terminal status.
func (a *Application) Cancel(at time.Time) error {
	if !a.Status.CanTransitionTo(StatusCancelled) {
		return transitionError(a.Status, StatusCancelled)
	}
	a.Status = StatusCancelled
	a.UpdatedAt = at.UTC()
	return nil
}

// StatusChange carries the inputs of a staff status update.
type StatusChange struct {
	NewStatus       Status
	ReviewerID      string
	Comments        string
	RejectionReason string
	At              time.Time
}

// ApplyStatusChange performs a staff-driven transition. A change to the
// already-current status is accepted as a no-op so client retries stay
// harmless. Rejection requires a reason; approval stamps ApprovedAt.
func (a *Application) ApplyStatusChange(change StatusChange) error {
	if !change.NewStatus.IsValid() {
		return shared.NewDomainError("application", "UpdateStatus", shared.ErrInvalidInput,
			fmt.Sprintf("unknown status %q", change.NewStatus))
	}

	// Idempotent retry of an already-applied change.
	if change.NewStatus == a.Status {
		return nil
	}

	if !a.Status.CanTransitionTo(change.NewStatus) {
		return transitionError(a.Status, change.NewStatus)
	}
	if change.NewStatus == StatusRejected && strings.TrimSpace(change.RejectionReason) == "" {
		return ErrRejectionReasonNeeded
	}

	at := change.At.UTC()

	a.Reviews = append(a.Reviews, Review{
		ApplicationID: a.ID,
		ReviewerID:    change.ReviewerID,
		FromStatus:    a.Status,
		ToStatus:      change.NewStatus,
		Comments:      change.Comments,
		CreatedAt:     at,
	})

	a.Status = change.NewStatus
	a.ReviewerID = change.ReviewerID
	a.Comments = change.Comments
	a.ReviewedAt = &at
	a.UpdatedAt = at

	switch change.NewStatus {
	case StatusApproved:
		a.ApprovedAt = &at
	case StatusRejected:
		a.RejectionReason = strings.TrimSpace(change.RejectionReason)
	}
	return nil
}

// RecordProfessorReview appends the assigned professor's recommendation and
// routes the workflow: at least one selected award moves the application to
// recommended, an empty selection parks it in pending_recommendation.
func (a *Application) RecordProfessorReview(professorID string, selectedAwards []string, recommendation string, at time.Time) error {
	if !a.IsAssignedProfessor(professorID) {
		return ErrNotAssignedProfessor
	}
	// pending_recommendation is exactly the state waiting on the professor,
	// so it admits a professor review even though staff review does not.
	if !a.CanBeReviewed() && a.Status != StatusPendingRecommendation {
		return ErrNotReviewable
	}

	next := StatusRecommended
	if len(selectedAwards) == 0 {
		next = StatusPendingRecommendation
	}
	if next != a.Status && !a.Status.CanTransitionTo(next) {
		return transitionError(a.Status, next)
	}

	atUTC := at.UTC()
	a.ProfessorReviews = append(a.ProfessorReviews, ProfessorReview{
		ApplicationID:  a.ID,
		ProfessorID:    professorID,
		SelectedAwards: append([]string(nil), selectedAwards...),
		Recommendation: recommendation,
		CreatedAt:      atUTC,
	})
	a.Status = next
	a.UpdatedAt = atUTC
	return nil
}

func transitionError(from, to Status) error {
	return shared.WrapError("application", "Transition", shared.ErrStateTransition,
		"status transition is not allowed",
		fmt.Errorf("%s -> %s", from, to))
}

// String returns a representation for logging.
func (a *Application) String() string {
	return fmt.Sprintf("Application{ID: %s, Student: %s, Scholarship: %s, Status: %s}",
		a.ID, a.StudentID, a.ScholarshipCode, a.Status)
}

// Clone creates a deep copy of the application.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}

	clone := *a
	if a.SubTypeCodes != nil {
		clone.SubTypeCodes = append([]string(nil), a.SubTypeCodes...)
	}
	if a.FormData != nil {
		clone.FormData = make(map[string]string, len(a.FormData))
		for k, v := range a.FormData {
			clone.FormData[k] = v
		}
	}
	if a.Documents != nil {
		clone.Documents = make(map[string]string, len(a.Documents))
		for k, v := range a.Documents {
			clone.Documents[k] = v
		}
	}
	if a.Reviews != nil {
		clone.Reviews = append([]Review(nil), a.Reviews...)
	}
	if a.ProfessorReviews != nil {
		clone.ProfessorReviews = append([]ProfessorReview(nil), a.ProfessorReviews...)
	}
	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		clone.SubmittedAt = &t
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		clone.ReviewedAt = &t
	}
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		clone.ApprovedAt = &t
	}
	return &clone
}
