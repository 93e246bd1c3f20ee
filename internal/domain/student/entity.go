// Package student contains the student domain model and the academic
// snapshot that eligibility rules evaluate against. This is the core of the
// snapshot builder - there are no external dependencies here.
package student

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentNo is the registrar-assigned student number.
type StudentNo string

// IsValid checks that the student number is plausible.
func (n StudentNo) IsValid() bool {
	s := string(n)
	return len(s) >= 4 && len(s) <= 32 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (n StudentNo) String() string {
	return string(n)
}

// Type classifies a student for scholarship eligibility purposes.
type Type string

const (
	TypeUndergraduate Type = "undergraduate"
	TypeGraduate      Type = "graduate"
	TypeDoctoral      Type = "doctoral"
	TypeExchange      Type = "exchange"
)

// IsValid checks that the student type is a known value.
func (t Type) IsValid() bool {
	switch t {
	case TypeUndergraduate, TypeGraduate, TypeDoctoral, TypeExchange:
		return true
	default:
		return false
	}
}

// Status is the student's enrollment status.
type Status string

const (
	// StatusEnrolled - the student is actively enrolled.
	StatusEnrolled Status = "enrolled"
	// StatusSuspended - the student is temporarily suspended.
	StatusSuspended Status = "suspended"
	// StatusGraduated - the student has graduated.
	StatusGraduated Status = "graduated"
	// StatusWithdrawn - the student has left the university.
	StatusWithdrawn Status = "withdrawn"
)

// CanApply returns true if students with this status may apply for
// scholarships.
func (s Status) CanApply() bool {
	return s == StatusEnrolled
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Student represents a student known to the scholarship system.
type Student struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// UserID - identifier of the authentication principal owning this student.
	UserID string

	// StudentNo - registrar-assigned student number, used by whitelists.
	StudentNo StudentNo

	// Name - display name.
	Name string

	// Type - student classification for eligibility gating.
	Type Type

	// Status - current enrollment status.
	Status Status

	// Record - the live academic record snapshots are built from.
	Record AcademicRecord

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last update time.
	UpdatedAt time.Time
}

// Domain errors. Built on the shared sentinels so callers can classify them
// with errors.Is and the shared.IsXxx helpers.
var (
	// ErrIncompleteAcademicRecord - the record misses fields a snapshot needs.
	ErrIncompleteAcademicRecord = shared.NewDomainError("student", "BuildSnapshot", shared.ErrInvalidInput, "academic record is missing degree or enrollment year")

	// ErrInvalidStudentNo - student number failed validation.
	ErrInvalidStudentNo = shared.NewDomainError("student", "Validate", shared.ErrInvalidInput, "invalid student number")

	// ErrInvalidStudentType - unknown student type.
	ErrInvalidStudentType = shared.NewDomainError("student", "Validate", shared.ErrInvalidInput, "invalid student type")

	// ErrStudentNotFound - student does not exist.
	ErrStudentNotFound = shared.NewDomainError("student", "Find", shared.ErrNotFound, "student not found")

	// ErrStudentCannotApply - enrollment status forbids applying.
	ErrStudentCannotApply = shared.NewDomainError("student", "CheckStatus", shared.ErrInvalidState, "student enrollment status does not allow applications")
)

// NewStudentParams contains parameters for creating a student.
type NewStudentParams struct {
	ID        string
	UserID    string
	StudentNo StudentNo
	Name      string
	Type      Type
	Record    AcademicRecord
}

// NewStudent creates a student with validation of all fields.
func NewStudent(params NewStudentParams) (*Student, error) {
	if params.ID == "" {
		return nil, errors.New("student id is required")
	}
	if params.UserID == "" {
		return nil, errors.New("student user id is required")
	}
	if !params.StudentNo.IsValid() {
		return nil, ErrInvalidStudentNo
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidStudentType
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errors.New("student name is required")
	}

	now := time.Now().UTC()

	return &Student{
		ID:        params.ID,
		UserID:    params.UserID,
		StudentNo: params.StudentNo,
		Name:      name,
		Type:      params.Type,
		Status:    StatusEnrolled,
		Record:    params.Record,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Snapshot builds an academic snapshot from the student's current record.
func (s *Student) Snapshot(at time.Time) (AcademicSnapshot, error) {
	return BuildSnapshot(s.Record, at)
}

// String returns a representation for logging.
func (s *Student) String() string {
	return fmt.Sprintf("Student{ID: %s, No: %s, Type: %s, Status: %s}",
		s.ID, s.StudentNo, s.Type, s.Status)
}

// Clone creates a copy of the student.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
