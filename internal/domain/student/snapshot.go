package student

import (
	"strconv"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC SNAPSHOT
// An immutable copy of a student's academic record, frozen at application
// creation time. The snapshot is stored verbatim on the application for audit
// and is never recomputed retroactively.
// ══════════════════════════════════════════════════════════════════════════════

// AcademicSnapshot is the value object eligibility rules evaluate against.
// It is serialized verbatim onto the application row, hence the JSON tags.
type AcademicSnapshot struct {
	// Degree - degree program code (e.g., "bachelor", "master", "phd").
	Degree string `json:"degree"`

	// EnrollmentType - enrollment type code (e.g., "full_time", "part_time").
	EnrollmentType string `json:"enrollment_type"`

	// Nationality - nationality code (e.g., "domestic", "international").
	Nationality string `json:"nationality"`

	// IdentityCode - student identity category code.
	IdentityCode string `json:"identity_code"`

	// SchoolIdentityCode - school-assigned identity category code.
	SchoolIdentityCode string `json:"school_identity_code"`

	// CompletedTerms - number of completed academic terms.
	CompletedTerms int `json:"completed_terms"`

	// GPA - grade point average on the institution's scale.
	GPA float64 `json:"gpa"`

	// ClassRankingPercent - class ranking percentile (lower is better).
	ClassRankingPercent float64 `json:"class_ranking_percent"`

	// DeptRankingPercent - department ranking percentile (lower is better).
	DeptRankingPercent float64 `json:"dept_ranking_percent"`

	// EnrollmentYear - year the student enrolled.
	EnrollmentYear int `json:"enrollment_year"`

	// EnrollmentTerm - term the student enrolled (1 or 2).
	EnrollmentTerm int `json:"enrollment_term"`

	// TakenAt - when the snapshot was assembled.
	TakenAt time.Time `json:"taken_at"`
}

// Field resolves a dotted condition path against the snapshot and returns the
// value as a string. The second return value is false when the path does not
// exist; callers treat that as a rule failure, never as a panic.
func (s AcademicSnapshot) Field(path string) (string, bool) {
	switch path {
	case "degree":
		return s.Degree, true
	case "enrollment.type", "enrollment_type":
		return s.EnrollmentType, true
	case "nationality":
		return s.Nationality, true
	case "identity.code", "identity_code":
		return s.IdentityCode, true
	case "identity.school_code", "school_identity_code":
		return s.SchoolIdentityCode, true
	case "completed_terms":
		return strconv.Itoa(s.CompletedTerms), true
	case "gpa":
		return formatFloat(s.GPA), true
	case "ranking.class_percent", "class_ranking_percent":
		return formatFloat(s.ClassRankingPercent), true
	case "ranking.department_percent", "department_ranking_percent":
		return formatFloat(s.DeptRankingPercent), true
	case "enrollment.year", "enrollment_year":
		return strconv.Itoa(s.EnrollmentYear), true
	case "enrollment.term", "enrollment_term":
		return strconv.Itoa(s.EnrollmentTerm), true
	default:
		return "", false
	}
}

// formatFloat renders a float without trailing zeros so that stringified
// comparisons stay stable ("3.5", not "3.500000").
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT BUILDER
// Pure data assembly from the student's current academic record. No rule
// logic lives here.
// ══════════════════════════════════════════════════════════════════════════════

// AcademicRecord is the student's live academic state as maintained by the
// registrar. The builder copies it into a snapshot; the record itself keeps
// changing afterwards.
type AcademicRecord struct {
	Degree              string
	EnrollmentType      string
	Nationality         string
	IdentityCode        string
	SchoolIdentityCode  string
	CompletedTerms      int
	GPA                 float64
	ClassRankingPercent float64
	DeptRankingPercent  float64
	EnrollmentYear      int
	EnrollmentTerm      int
}

// BuildSnapshot assembles an immutable snapshot from the record at the given
// time. Degree and enrollment year are the minimum a record must carry.
func BuildSnapshot(record AcademicRecord, at time.Time) (AcademicSnapshot, error) {
	if record.Degree == "" || record.EnrollmentYear == 0 {
		return AcademicSnapshot{}, ErrIncompleteAcademicRecord
	}

	return AcademicSnapshot{
		Degree:              record.Degree,
		EnrollmentType:      record.EnrollmentType,
		Nationality:         record.Nationality,
		IdentityCode:        record.IdentityCode,
		SchoolIdentityCode:  record.SchoolIdentityCode,
		CompletedTerms:      record.CompletedTerms,
		GPA:                 record.GPA,
		ClassRankingPercent: record.ClassRankingPercent,
		DeptRankingPercent:  record.DeptRankingPercent,
		EnrollmentYear:      record.EnrollmentYear,
		EnrollmentTerm:      record.EnrollmentTerm,
		TakenAt:             at.UTC(),
	}, nil
}
