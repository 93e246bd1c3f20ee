package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `
	id, user_id, student_no, name, type, status,
	degree, enrollment_type, nationality, identity_code, school_identity_code,
	completed_terms, gpa, class_ranking_percent, dept_ranking_percent,
	enrollment_year, enrollment_term, created_at, updated_at`

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			id, user_id, student_no, name, type, status,
			degree, enrollment_type, nationality, identity_code, school_identity_code,
			completed_terms, gpa, class_ranking_percent, dept_ranking_percent,
			enrollment_year, enrollment_term, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.StudentNo.String(),
		s.Name,
		string(s.Type),
		string(s.Status),
		s.Record.Degree,
		s.Record.EnrollmentType,
		s.Record.Nationality,
		s.Record.IdentityCode,
		s.Record.SchoolIdentityCode,
		s.Record.CompletedTerms,
		s.Record.GPA,
		s.Record.ClassRankingPercent,
		s.Record.DeptRankingPercent,
		s.Record.EnrollmentYear,
		s.Record.EnrollmentTerm,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("student", "Create", shared.ErrAlreadyExists, "student already exists", err)
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.scanStudent(r.conn.QueryRow(ctx, query, id))
}

// GetByUserID returns the student owned by an authentication principal.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1`
	return r.scanStudent(r.conn.QueryRow(ctx, query, userID))
}

// GetByStudentNo returns a student by registrar number.
func (r *StudentRepository) GetByStudentNo(ctx context.Context, no student.StudentNo) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_no = $1`
	return r.scanStudent(r.conn.QueryRow(ctx, query, no.String()))
}

// Update persists changes to an existing student.
func (r *StudentRepository) Update(ctx context.Context, s *student.Student) error {
	query := `
		UPDATE students SET
			name = $2, type = $3, status = $4,
			degree = $5, enrollment_type = $6, nationality = $7,
			identity_code = $8, school_identity_code = $9,
			completed_terms = $10, gpa = $11, class_ranking_percent = $12,
			dept_ranking_percent = $13, enrollment_year = $14, enrollment_term = $15,
			updated_at = $16
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		s.ID,
		s.Name,
		string(s.Type),
		string(s.Status),
		s.Record.Degree,
		s.Record.EnrollmentType,
		s.Record.Nationality,
		s.Record.IdentityCode,
		s.Record.SchoolIdentityCode,
		s.Record.CompletedTerms,
		s.Record.GPA,
		s.Record.ClassRankingPercent,
		s.Record.DeptRankingPercent,
		s.Record.EnrollmentYear,
		s.Record.EnrollmentTerm,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return student.ErrStudentNotFound
	}
	return nil
}

func (r *StudentRepository) scanStudent(row pgx.Row) (*student.Student, error) {
	var (
		s      student.Student
		no     string
		sType  string
		status string
	)

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&no,
		&s.Name,
		&sType,
		&status,
		&s.Record.Degree,
		&s.Record.EnrollmentType,
		&s.Record.Nationality,
		&s.Record.IdentityCode,
		&s.Record.SchoolIdentityCode,
		&s.Record.CompletedTerms,
		&s.Record.GPA,
		&s.Record.ClassRankingPercent,
		&s.Record.DeptRankingPercent,
		&s.Record.EnrollmentYear,
		&s.Record.EnrollmentTerm,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.StudentNo = student.StudentNo(no)
	s.Type = student.Type(sType)
	s.Status = student.Status(status)
	return &s, nil
}
