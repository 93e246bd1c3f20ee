// Package scholarship contains the scholarship domain model: scholarship
// types, their declarative eligibility rules, and the rule evaluator.
// Eligibility criteria are stored as data, not code, so changing them never
// requires a redeployment.
package scholarship

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Code is the unique scholarship code (e.g., "national-merit-2026").
type Code string

// IsValid checks that the code is plausible.
func (c Code) IsValid() bool {
	s := string(c)
	return len(s) >= 2 && len(s) <= 64 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (c Code) String() string {
	return string(c)
}

// SubType is a named variant of a scholarship (e.g., a funding-source
// variant) with its own rule subset.
type SubType struct {
	// Code - variant code, unique within the scholarship.
	Code string

	// Name - primary-language display name.
	Name string

	// NameEN - English display name.
	NameEN string
}

// Status is the scholarship lifecycle status.
type Status string

const (
	// StatusActive - the scholarship accepts applications inside its window.
	StatusActive Status = "active"
	// StatusInactive - the scholarship is configured but not open.
	StatusInactive Status = "inactive"
	// StatusArchived - the scholarship is retained for history only.
	StatusArchived Status = "archived"
)

// IsValid checks that the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	default:
		return false
	}
}

// Category groups scholarships for display purposes.
type Category string

const (
	CategoryMerit      Category = "merit"
	CategoryNeed       Category = "need_based"
	CategoryResearch   Category = "research"
	CategoryGovernment Category = "government"
	CategoryDonor      Category = "donor"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP TYPE ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// ScholarshipType is the aggregate root owning its rules and whitelist.
type ScholarshipType struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// Code - unique scholarship code.
	Code Code

	// Name - primary-language name.
	Name string

	// NameEN - English name.
	NameEN string

	// Amount - award amount. Money, so decimal rather than float.
	Amount decimal.Decimal

	// Currency - ISO currency code.
	Currency string

	// Category - display grouping.
	Category Category

	// EligibleStudentTypes - student types allowed to apply.
	// Empty means no restriction.
	EligibleStudentTypes []student.Type

	// MinGPA - minimum GPA gate. Zero means not configured.
	MinGPA float64

	// MaxRankingPercent - maximum class-ranking percentile gate.
	// Zero means not configured.
	MaxRankingPercent float64

	// MaxCompletedTerms - maximum completed-term gate. Zero means not
	// configured.
	MaxCompletedTerms int

	// RequiredFields - form field names the submit guard checks.
	RequiredFields []string

	// RequiredDocuments - document slot names the submit guard checks.
	RequiredDocuments []string

	// SubTypes - optional variant enumeration.
	SubTypes []SubType

	// WhitelistEnabled - opt-in restriction to an explicit student set.
	// When false every student passes the whitelist check by design.
	WhitelistEnabled bool

	// Whitelist - student numbers admitted when the whitelist is enabled.
	Whitelist []student.StudentNo

	// ApplicationStart / ApplicationEnd - the application window. Both are
	// required for the window to be considered open.
	ApplicationStart *time.Time
	ApplicationEnd   *time.Time

	// ReviewDeadline - when reviews should be completed.
	ReviewDeadline *time.Time

	// MaxApplicationsPerYear - per-student cap per academic year.
	// Zero means not configured.
	MaxApplicationsPerYear int

	// RequiresProfessorRecommendation - the workflow routes through the
	// professor review stage.
	RequiresProfessorRecommendation bool

	// RequiresCollegeReview - the workflow routes through college review.
	RequiresCollegeReview bool

	// Status - lifecycle status.
	Status Status

	// CreatedAt / UpdatedAt - record timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidCode - scholarship code failed validation.
	ErrInvalidCode = shared.NewDomainError("scholarship", "Validate", shared.ErrInvalidFormat, "invalid scholarship code")

	// ErrInvalidAmount - amount must be positive.
	ErrInvalidAmount = shared.NewDomainError("scholarship", "Validate", shared.ErrValueOutOfRange, "scholarship amount must be positive")

	// ErrInvalidWindow - end date must be after start date.
	ErrInvalidWindow = shared.NewDomainError("scholarship", "Validate", shared.ErrInvalidInput, "application end date must be after start date")

	// ErrUnknownSubType - sub-type code not declared on the scholarship.
	ErrUnknownSubType = shared.NewDomainError("scholarship", "Validate", shared.ErrInvalidInput, "unknown scholarship sub-type")

	// ErrScholarshipNotFound - scholarship does not exist.
	ErrScholarshipNotFound = shared.NewDomainError("scholarship", "Find", shared.ErrNotFound, "scholarship not found")

	// ErrScholarshipCodeTaken - code already in use.
	ErrScholarshipCodeTaken = shared.NewDomainError("scholarship", "Create", shared.ErrAlreadyExists, "scholarship code already exists")

	// ErrScholarshipInactive - the scholarship is not accepting applications.
	ErrScholarshipInactive = shared.NewDomainError("scholarship", "CheckStatus", shared.ErrInvalidState, "scholarship is not active")

	// ErrScholarshipClosed - the application window is not open.
	ErrScholarshipClosed = shared.NewDomainError("scholarship", "CheckWindow", shared.ErrExpired, "application period is not open")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewScholarshipParams contains parameters for creating a scholarship type.
type NewScholarshipParams struct {
	ID       string
	Code     Code
	Name     string
	NameEN   string
	Amount   decimal.Decimal
	Currency string
	Category Category
}

// NewScholarshipType creates a scholarship type with validation.
func NewScholarshipType(params NewScholarshipParams) (*ScholarshipType, error) {
	if params.ID == "" {
		return nil, errors.New("scholarship id is required")
	}
	if !params.Code.IsValid() {
		return nil, ErrInvalidCode
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, errors.New("scholarship name is required")
	}
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	currency := params.Currency
	if currency == "" {
		currency = "CNY"
	}

	now := time.Now().UTC()

	return &ScholarshipType{
		ID:        params.ID,
		Code:      params.Code,
		Name:      strings.TrimSpace(params.Name),
		NameEN:    strings.TrimSpace(params.NameEN),
		Amount:    params.Amount,
		Currency:  currency,
		Category:  params.Category,
		Status:    StatusInactive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetWindow configures the application window, enforcing end > start.
func (s *ScholarshipType) SetWindow(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidWindow
	}
	startUTC, endUTC := start.UTC(), end.UTC()
	s.ApplicationStart = &startUTC
	s.ApplicationEnd = &endUTC
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate opens the scholarship.
func (s *ScholarshipType) Activate() {
	s.Status = StatusActive
	s.UpdatedAt = time.Now().UTC()
}

// Deactivate closes the scholarship without archiving it.
func (s *ScholarshipType) Deactivate() {
	s.Status = StatusInactive
	s.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY GATES (scholarship-level, not rule-expressible)
// ══════════════════════════════════════════════════════════════════════════════

// IsActive returns true if the scholarship accepts applications at all.
func (s *ScholarshipType) IsActive() bool {
	return s.Status == StatusActive
}

// IsOpenAt returns true if the application window contains t. A window with
// either bound missing is never open.
func (s *ScholarshipType) IsOpenAt(t time.Time) bool {
	if s.ApplicationStart == nil || s.ApplicationEnd == nil {
		return false
	}
	return !t.Before(*s.ApplicationStart) && !t.After(*s.ApplicationEnd)
}

// AcceptsStudentType returns true if the student type may apply. An empty
// eligible set means no restriction.
func (s *ScholarshipType) AcceptsStudentType(t student.Type) bool {
	if len(s.EligibleStudentTypes) == 0 {
		return true
	}
	for _, allowed := range s.EligibleStudentTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// IsStudentInWhitelist implements the opt-in whitelist gate. With the
// whitelist disabled every student passes, including ones never listed.
// With it enabled and the set empty, nobody passes.
func (s *ScholarshipType) IsStudentInWhitelist(no student.StudentNo) bool {
	if !s.WhitelistEnabled {
		return true
	}
	for _, listed := range s.Whitelist {
		if listed == no {
			return true
		}
	}
	return false
}

// HasSubType returns true if the code names a declared sub-type.
func (s *ScholarshipType) HasSubType(code string) bool {
	for _, st := range s.SubTypes {
		if st.Code == code {
			return true
		}
	}
	return false
}

// ValidateSubTypeSelection checks that every selected code is declared.
func (s *ScholarshipType) ValidateSubTypeSelection(codes []string) error {
	for _, code := range codes {
		if !s.HasSubType(code) {
			return fmt.Errorf("%w: %s", ErrUnknownSubType, code)
		}
	}
	return nil
}

// String returns a representation for logging.
func (s *ScholarshipType) String() string {
	return fmt.Sprintf("ScholarshipType{Code: %s, Status: %s, Amount: %s %s}",
		s.Code, s.Status, s.Amount, s.Currency)
}

// Clone creates a deep copy of the scholarship type.
func (s *ScholarshipType) Clone() *ScholarshipType {
	if s == nil {
		return nil
	}

	clone := *s
	if s.EligibleStudentTypes != nil {
		clone.EligibleStudentTypes = append([]student.Type(nil), s.EligibleStudentTypes...)
	}
	if s.RequiredFields != nil {
		clone.RequiredFields = append([]string(nil), s.RequiredFields...)
	}
	if s.RequiredDocuments != nil {
		clone.RequiredDocuments = append([]string(nil), s.RequiredDocuments...)
	}
	if s.SubTypes != nil {
		clone.SubTypes = append([]SubType(nil), s.SubTypes...)
	}
	if s.Whitelist != nil {
		clone.Whitelist = append([]student.StudentNo(nil), s.Whitelist...)
	}
	if s.ApplicationStart != nil {
		t := *s.ApplicationStart
		clone.ApplicationStart = &t
	}
	if s.ApplicationEnd != nil {
		t := *s.ApplicationEnd
		clone.ApplicationEnd = &t
	}
	if s.ReviewDeadline != nil {
		t := *s.ReviewDeadline
		clone.ReviewDeadline = &t
	}
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN ASSIGNMENT
// ══════════════════════════════════════════════════════════════════════════════

// AdminAssignment records which admin manages which scholarship.
type AdminAssignment struct {
	AdminID       string
	ScholarshipID string
	AssignedAt    time.Time
}
