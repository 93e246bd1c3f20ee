package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY IMPLEMENTATION
// The status transition uses an expected-status precondition in the WHERE
// clause; zero affected rows means another writer got there first and the
// caller sees a conflict instead of a lost update. The partial unique index
// from migration 3 backs the duplicate-application guard.
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationRepository implements application.Repository for PostgreSQL.
type ApplicationRepository struct {
	conn *Connection
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{conn: conn}
}

const applicationColumns = `
	id, student_id, student_no, scholarship_id, scholarship_code,
	sub_type_codes, academic_year, snapshot, form_data, documents,
	status, professor_id, reviewer_id, comments, rejection_reason,
	created_at, updated_at, submitted_at, reviewed_at, approved_at`

// Create persists a new application.
func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	snapshotJSON, formJSON, docsJSON, err := marshalPayloads(a)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO applications (
			id, student_id, student_no, scholarship_id, scholarship_code,
			sub_type_codes, academic_year, snapshot, form_data, documents,
			status, professor_id, reviewer_id, comments, rejection_reason,
			created_at, updated_at, submitted_at, reviewed_at, approved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = r.conn.Exec(ctx, query,
		a.ID,
		a.StudentID,
		a.StudentNo.String(),
		a.ScholarshipID,
		a.ScholarshipCode,
		a.SubTypeCodes,
		a.AcademicYear,
		snapshotJSON,
		formJSON,
		docsJSON,
		string(a.Status),
		a.ProfessorID,
		a.ReviewerID,
		a.Comments,
		a.RejectionReason,
		a.CreatedAt,
		a.UpdatedAt,
		a.SubmittedAt,
		a.ReviewedAt,
		a.ApprovedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return application.ErrDuplicateApplication
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByID returns an application with its review trails loaded.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app, err := r.scanApplication(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadReviews(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListByStudent returns a student's applications, newest first.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string) ([]*application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id = $1 ORDER BY created_at DESC`
	return r.queryApplications(ctx, query, studentID)
}

// ListByScholarship returns applications for a scholarship, optionally
// filtered by status.
func (r *ApplicationRepository) ListByScholarship(ctx context.Context, scholarshipID string, status application.Status) ([]*application.Application, error) {
	if status == "" {
		query := `SELECT ` + applicationColumns + ` FROM applications WHERE scholarship_id = $1 ORDER BY created_at DESC`
		return r.queryApplications(ctx, query, scholarshipID)
	}
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE scholarship_id = $1 AND status = $2 ORDER BY created_at DESC`
	return r.queryApplications(ctx, query, scholarshipID, string(status))
}

// ListForProfessor returns reviewable applications assigned to the professor.
func (r *ApplicationRepository) ListForProfessor(ctx context.Context, professorID string) ([]*application.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE professor_id = $1
		  AND status IN ('submitted', 'under_review', 'pending_recommendation', 'recommended')
		ORDER BY submitted_at
	`
	return r.queryApplications(ctx, query, professorID)
}

// Update persists form and document changes on a draft.
func (r *ApplicationRepository) Update(ctx context.Context, a *application.Application) error {
	_, formJSON, docsJSON, err := marshalPayloads(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE applications SET
			form_data = $2, documents = $3, sub_type_codes = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query, a.ID, formJSON, docsJSON, a.SubTypeCodes, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrApplicationNotFound
	}
	return nil
}

// UpdateStatus persists a transition guarded by the expected status. The
// status row and the review records the transition appended commit in a
// single transaction: a failed insert rolls back the transition, so the
// review trail can never fall behind the status.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, a *application.Application, expected application.Status) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE applications SET
				status = $3, professor_id = $4, reviewer_id = $5, comments = $6,
				rejection_reason = $7, updated_at = $8, submitted_at = $9,
				reviewed_at = $10, approved_at = $11
			WHERE id = $1 AND status = $2
		`

		tag, err := tx.Exec(ctx, query,
			a.ID,
			string(expected),
			string(a.Status),
			a.ProfessorID,
			a.ReviewerID,
			a.Comments,
			a.RejectionReason,
			a.UpdatedAt,
			a.SubmittedAt,
			a.ReviewedAt,
			a.ApprovedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				// The partial unique index caught a concurrent duplicate
				// submission.
				return application.ErrDuplicateApplication
			}
			return fmt.Errorf("failed to update application status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Either the application vanished or its status moved under us.
			// Distinguish so callers get the right error class.
			var exists bool
			checkErr := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, a.ID).Scan(&exists)
			if checkErr != nil {
				return fmt.Errorf("failed to check application existence: %w", checkErr)
			}
			if !exists {
				return application.ErrApplicationNotFound
			}
			return application.ErrStatusConflict
		}

		// Persist the trail records the transition appended. Inserts are
		// keyed by id, so a record that is already stored is a no-op and a
		// fresh one commits together with the status row.
		if n := len(a.Reviews); n > 0 {
			last := a.Reviews[n-1]
			if last.ID == "" {
				last.ID = newReviewID()
				a.Reviews[n-1] = last
			}
			if err := insertReview(ctx, tx, last); err != nil {
				return err
			}
		}
		if n := len(a.ProfessorReviews); n > 0 {
			last := a.ProfessorReviews[n-1]
			if last.ID == "" {
				last.ID = newReviewID()
				a.ProfessorReviews[n-1] = last
			}
			if err := insertProfessorReview(ctx, tx, last); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasActiveApplication reports whether the student has an application for
// the scholarship in an active status. Always reads the authoritative store.
func (r *ApplicationRepository) HasActiveApplication(ctx context.Context, studentID, scholarshipCode string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE student_id = $1
			  AND scholarship_code = $2
			  AND status IN ('submitted', 'under_review', 'pending_recommendation', 'recommended')
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, studentID, scholarshipCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active application: %w", err)
	}
	return exists, nil
}

// CountForYear returns the student's non-cancelled applications for the
// scholarship in the academic year.
func (r *ApplicationRepository) CountForYear(ctx context.Context, studentID, scholarshipCode string, year int) (int, error) {
	query := `
		SELECT COUNT(*) FROM applications
		WHERE student_id = $1
		  AND scholarship_code = $2
		  AND academic_year = $3
		  AND status <> 'cancelled'
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, studentID, scholarshipCode, year).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

// AddReview appends a staff review record.
func (r *ApplicationRepository) AddReview(ctx context.Context, review application.Review) error {
	if review.ID == "" {
		review.ID = newReviewID()
	}
	return insertReview(ctx, r.conn, review)
}

// AddProfessorReview appends a professor recommendation record.
func (r *ApplicationRepository) AddProfessorReview(ctx context.Context, review application.ProfessorReview) error {
	if review.ID == "" {
		review.ID = newReviewID()
	}
	return insertProfessorReview(ctx, r.conn, review)
}

func insertReview(ctx context.Context, q Querier, review application.Review) error {
	_, err := q.Exec(ctx, `
		INSERT INTO application_reviews (id, application_id, reviewer_id, from_status, to_status, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		review.ID,
		review.ApplicationID,
		review.ReviewerID,
		string(review.FromStatus),
		string(review.ToStatus),
		review.Comments,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

func insertProfessorReview(ctx context.Context, q Querier, review application.ProfessorReview) error {
	_, err := q.Exec(ctx, `
		INSERT INTO professor_reviews (id, application_id, professor_id, selected_awards, recommendation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		review.ID,
		review.ApplicationID,
		review.ProfessorID,
		review.SelectedAwards,
		review.Recommendation,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert professor review: %w", err)
	}
	return nil
}

// ListSubmittedBefore returns applications submitted before the cutoff that
// still await review.
func (r *ApplicationRepository) ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]*application.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE submitted_at < $1
		  AND status IN ('submitted', 'under_review', 'pending_recommendation')
		ORDER BY submitted_at
	`
	return r.queryApplications(ctx, query, cutoff)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ApplicationRepository) queryApplications(ctx context.Context, query string, args ...interface{}) ([]*application.Application, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var result []*application.Application
	for rows.Next() {
		app, err := r.scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

func (r *ApplicationRepository) scanApplication(row pgx.Row) (*application.Application, error) {
	var (
		a            application.Application
		no           string
		status       string
		snapshotJSON []byte
		formJSON     []byte
		docsJSON     []byte
	)

	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&no,
		&a.ScholarshipID,
		&a.ScholarshipCode,
		&a.SubTypeCodes,
		&a.AcademicYear,
		&snapshotJSON,
		&formJSON,
		&docsJSON,
		&status,
		&a.ProfessorID,
		&a.ReviewerID,
		&a.Comments,
		&a.RejectionReason,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.SubmittedAt,
		&a.ReviewedAt,
		&a.ApprovedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, application.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}

	a.StudentNo = student.StudentNo(no)
	a.Status = application.Status(status)

	if err := json.Unmarshal(snapshotJSON, &a.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if err := json.Unmarshal(formJSON, &a.FormData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form data: %w", err)
	}
	if err := json.Unmarshal(docsJSON, &a.Documents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
	}
	return &a, nil
}

func (r *ApplicationRepository) loadReviews(ctx context.Context, a *application.Application) error {
	rows, err := r.conn.Query(ctx, `
		SELECT id, application_id, reviewer_id, from_status, to_status, comments, created_at
		FROM application_reviews WHERE application_id = $1 ORDER BY created_at`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	a.Reviews = nil
	for rows.Next() {
		var rev application.Review
		var from, to string
		if err := rows.Scan(&rev.ID, &rev.ApplicationID, &rev.ReviewerID, &from, &to, &rev.Comments, &rev.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan review: %w", err)
		}
		rev.FromStatus = application.Status(from)
		rev.ToStatus = application.Status(to)
		a.Reviews = append(a.Reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	profRows, err := r.conn.Query(ctx, `
		SELECT id, application_id, professor_id, selected_awards, recommendation, created_at
		FROM professor_reviews WHERE application_id = $1 ORDER BY created_at`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to query professor reviews: %w", err)
	}
	defer profRows.Close()

	a.ProfessorReviews = nil
	for profRows.Next() {
		var rev application.ProfessorReview
		if err := profRows.Scan(&rev.ID, &rev.ApplicationID, &rev.ProfessorID, &rev.SelectedAwards, &rev.Recommendation, &rev.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan professor review: %w", err)
		}
		a.ProfessorReviews = append(a.ProfessorReviews, rev)
	}
	return profRows.Err()
}

// newReviewID generates identifiers for review rows inserted by the
// persistence layer itself.
func newReviewID() string {
	return uuid.NewString()
}

func marshalPayloads(a *application.Application) (snapshot, form, docs []byte, err error) {
	if snapshot, err = json.Marshal(a.Snapshot); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if form, err = json.Marshal(a.FormData); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal form data: %w", err)
	}
	if docs, err = json.Marshal(a.Documents); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal documents: %w", err)
	}
	return snapshot, form, docs, nil
}
