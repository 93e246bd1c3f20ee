// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/application/eligibility"
	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE APPLICATION COMMAND
// Builds the academic snapshot, runs the eligibility gate, and persists the
// application in draft. An ineligible student gets every blocking reason at
// once, not just the first.
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator produces unique identifiers for new aggregates.
type IDGenerator interface {
	NewID() string
}

// CreateApplicationCommand contains the data to create an application.
type CreateApplicationCommand struct {
	// Principal is the authenticated caller; must be a student.
	Principal identity.Principal

	// ScholarshipCode identifies the target scholarship.
	ScholarshipCode string

	// SubTypeCodes are the selected scholarship variants, if any.
	SubTypeCodes []string

	// FormData is the initial form payload.
	FormData map[string]string

	// ProfessorID is the professor asked for a recommendation, when the
	// scholarship requires one.
	ProfessorID string

	// AcademicYear the application counts against. Zero means derive it
	// from the current date.
	AcademicYear int
}

// Validate validates the command.
func (c CreateApplicationCommand) Validate() error {
	if c.Principal.Role != identity.RoleStudent || c.Principal.StudentID == "" {
		return identity.ErrRoleForbidden
	}
	if strings.TrimSpace(c.ScholarshipCode) == "" {
		return errors.New("create_application: scholarship_code is required")
	}
	return nil
}

// CreateApplicationResult contains the result of creating an application.
type CreateApplicationResult struct {
	// Application is the persisted draft.
	Application *application.Application

	// Warnings are advisory rule failures surfaced to the student.
	Warnings []scholarship.RuleResult
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateApplicationHandler handles the CreateApplicationCommand.
type CreateApplicationHandler struct {
	students     student.Repository
	scholarships scholarship.Repository
	applications application.Repository
	gate         *eligibility.Gate
	ids          IDGenerator
	clock        shared.Clock
	publisher    shared.EventPublisher
}

// NewCreateApplicationHandler creates a new CreateApplicationHandler.
func NewCreateApplicationHandler(
	students student.Repository,
	scholarships scholarship.Repository,
	applications application.Repository,
	gate *eligibility.Gate,
	ids IDGenerator,
	clock shared.Clock,
	publisher shared.EventPublisher,
) *CreateApplicationHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CreateApplicationHandler{
		students:     students,
		scholarships: scholarships,
		applications: applications,
		gate:         gate,
		ids:          ids,
		clock:        clock,
		publisher:    publisher,
	}
}

// EligibilityError is the typed rejection returned when the gate blocks.
// It carries the full bilingual reason set for the UI.
type EligibilityError struct {
	Reasons []eligibility.Reason
}

// Error implements the error interface.
func (e *EligibilityError) Error() string {
	codes := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		codes = append(codes, r.Code)
	}
	return fmt.Sprintf("student is not eligible: %s", strings.Join(codes, ", "))
}

// Is lets callers classify the rejection as a validation error.
func (e *EligibilityError) Is(target error) bool {
	return target == shared.ErrValidation
}

// Handle executes the create application command.
func (h *CreateApplicationHandler) Handle(ctx context.Context, cmd CreateApplicationCommand) (*CreateApplicationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_application: %w", err)
	}

	stud, err := h.students.GetByID(ctx, cmd.Principal.StudentID)
	if err != nil {
		return nil, fmt.Errorf("create_application: failed to get student: %w", err)
	}
	if !stud.Status.CanApply() {
		return nil, student.ErrStudentCannotApply
	}

	sch, err := h.scholarships.GetByCode(ctx, scholarship.Code(cmd.ScholarshipCode))
	if err != nil {
		return nil, fmt.Errorf("create_application: failed to get scholarship: %w", err)
	}
	if err := sch.ValidateSubTypeSelection(cmd.SubTypeCodes); err != nil {
		return nil, fmt.Errorf("create_application: %w", err)
	}

	now := h.clock.Now()
	snapshot, err := stud.Snapshot(now)
	if err != nil {
		return nil, fmt.Errorf("create_application: failed to build snapshot: %w", err)
	}

	academicYear := cmd.AcademicYear
	if academicYear == 0 {
		academicYear = currentAcademicYear(now)
	}

	subTypeCode := ""
	if len(cmd.SubTypeCodes) > 0 {
		subTypeCode = cmd.SubTypeCodes[0]
	}

	decision, err := h.gate.Check(ctx, eligibility.Request{
		Student:      stud,
		Scholarship:  sch,
		Snapshot:     snapshot,
		SubTypeCode:  subTypeCode,
		AcademicYear: academicYear,
	})
	if err != nil {
		// Fatal: broken rule configuration or storage. Never default to
		// eligible.
		return nil, fmt.Errorf("create_application: eligibility check failed: %w", err)
	}
	if decision.Blocked() {
		return nil, &EligibilityError{Reasons: decision.Reasons}
	}

	app, err := application.NewApplication(application.NewApplicationParams{
		ID:              h.ids.NewID(),
		StudentID:       stud.ID,
		StudentNo:       stud.StudentNo,
		ScholarshipID:   sch.ID,
		ScholarshipCode: sch.Code.String(),
		SubTypeCodes:    cmd.SubTypeCodes,
		AcademicYear:    academicYear,
		Snapshot:        snapshot,
		FormData:        cmd.FormData,
		ProfessorID:     cmd.ProfessorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create_application: %w", err)
	}

	if err := h.applications.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create_application: failed to persist: %w", err)
	}

	_ = h.publisher.Publish(application.NewCreatedEvent(app))

	return &CreateApplicationResult{
		Application: app,
		Warnings:    decision.Warnings,
	}, nil
}

// currentAcademicYear derives the academic year from a timestamp; the year
// rolls over in September.
func currentAcademicYear(t time.Time) int {
	if t.Month() >= time.September {
		return t.Year()
	}
	return t.Year() - 1
}
