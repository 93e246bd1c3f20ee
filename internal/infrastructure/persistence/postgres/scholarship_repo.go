package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP REPOSITORY IMPLEMENTATION
// Rules, sub-types, and whitelist entries live in child tables and are
// loaded with the aggregate. They cascade-delete with the scholarship.
// ══════════════════════════════════════════════════════════════════════════════

// ScholarshipRepository implements scholarship.Repository for PostgreSQL.
type ScholarshipRepository struct {
	conn *Connection
}

// NewScholarshipRepository creates a new ScholarshipRepository.
func NewScholarshipRepository(conn *Connection) *ScholarshipRepository {
	return &ScholarshipRepository{conn: conn}
}

const scholarshipColumns = `
	id, code, name, name_en, amount, currency, category,
	eligible_student_types, min_gpa, max_ranking_percent, max_completed_terms,
	required_fields, required_documents, whitelist_enabled,
	application_start, application_end, review_deadline,
	max_applications_per_year, requires_professor_recommendation,
	requires_college_review, status, created_at, updated_at`

// Create persists a new scholarship type.
func (r *ScholarshipRepository) Create(ctx context.Context, s *scholarship.ScholarshipType) error {
	query := `
		INSERT INTO scholarship_types (
			id, code, name, name_en, amount, currency, category,
			eligible_student_types, min_gpa, max_ranking_percent, max_completed_terms,
			required_fields, required_documents, whitelist_enabled,
			application_start, application_end, review_deadline,
			max_applications_per_year, requires_professor_recommendation,
			requires_college_review, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		          $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.Code.String(),
		s.Name,
		s.NameEN,
		s.Amount,
		s.Currency,
		string(s.Category),
		studentTypesToStrings(s.EligibleStudentTypes),
		s.MinGPA,
		s.MaxRankingPercent,
		s.MaxCompletedTerms,
		s.RequiredFields,
		s.RequiredDocuments,
		s.WhitelistEnabled,
		s.ApplicationStart,
		s.ApplicationEnd,
		s.ReviewDeadline,
		s.MaxApplicationsPerYear,
		s.RequiresProfessorRecommendation,
		s.RequiresCollegeReview,
		string(s.Status),
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return scholarship.ErrScholarshipCodeTaken
		}
		return fmt.Errorf("failed to create scholarship: %w", err)
	}
	return r.saveSubTypes(ctx, s)
}

// GetByID returns a scholarship by internal ID.
func (r *ScholarshipRepository) GetByID(ctx context.Context, id string) (*scholarship.ScholarshipType, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarship_types WHERE id = $1`
	return r.loadScholarship(ctx, r.conn.QueryRow(ctx, query, id))
}

// GetByCode returns a scholarship by its unique code.
func (r *ScholarshipRepository) GetByCode(ctx context.Context, code scholarship.Code) (*scholarship.ScholarshipType, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarship_types WHERE code = $1`
	return r.loadScholarship(ctx, r.conn.QueryRow(ctx, query, code.String()))
}

// ListActive returns all scholarships currently in active status.
func (r *ScholarshipRepository) ListActive(ctx context.Context) ([]*scholarship.ScholarshipType, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarship_types WHERE status = $1 ORDER BY code`

	rows, err := r.conn.Query(ctx, query, string(scholarship.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list active scholarships: %w", err)
	}
	defer rows.Close()

	var result []*scholarship.ScholarshipType
	for rows.Next() {
		s, err := r.scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range result {
		if err := r.loadChildren(ctx, s); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Update persists changes to an existing scholarship type.
func (r *ScholarshipRepository) Update(ctx context.Context, s *scholarship.ScholarshipType) error {
	query := `
		UPDATE scholarship_types SET
			name = $2, name_en = $3, amount = $4, currency = $5, category = $6,
			eligible_student_types = $7, min_gpa = $8, max_ranking_percent = $9,
			max_completed_terms = $10, required_fields = $11, required_documents = $12,
			whitelist_enabled = $13, application_start = $14, application_end = $15,
			review_deadline = $16, max_applications_per_year = $17,
			requires_professor_recommendation = $18, requires_college_review = $19,
			status = $20, updated_at = $21
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		s.ID,
		s.Name,
		s.NameEN,
		s.Amount,
		s.Currency,
		string(s.Category),
		studentTypesToStrings(s.EligibleStudentTypes),
		s.MinGPA,
		s.MaxRankingPercent,
		s.MaxCompletedTerms,
		s.RequiredFields,
		s.RequiredDocuments,
		s.WhitelistEnabled,
		s.ApplicationStart,
		s.ApplicationEnd,
		s.ReviewDeadline,
		s.MaxApplicationsPerYear,
		s.RequiresProfessorRecommendation,
		s.RequiresCollegeReview,
		string(s.Status),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update scholarship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scholarship.ErrScholarshipNotFound
	}
	return r.saveSubTypes(ctx, s)
}

// Delete removes a scholarship; rules, sub-types, and whitelist cascade.
func (r *ScholarshipRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM scholarship_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scholarship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scholarship.ErrScholarshipNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Rules
// ─────────────────────────────────────────────────────────────────────────────

// GetRules returns every rule owned by the scholarship.
func (r *ScholarshipRepository) GetRules(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error) {
	query := `
		SELECT id, scholarship_id, sub_type_code, tag, condition_field, operator,
		       expected_value, message, message_en, is_hard_rule, is_warning,
		       priority, active
		FROM scholarship_rules
		WHERE scholarship_id = $1
		ORDER BY priority, id
	`

	rows, err := r.conn.Query(ctx, query, scholarshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []scholarship.Rule
	for rows.Next() {
		var rule scholarship.Rule
		var operator string
		if err := rows.Scan(
			&rule.ID,
			&rule.ScholarshipID,
			&rule.SubTypeCode,
			&rule.Tag,
			&rule.ConditionField,
			&operator,
			&rule.ExpectedValue,
			&rule.Message,
			&rule.MessageEN,
			&rule.IsHardRule,
			&rule.IsWarning,
			&rule.Priority,
			&rule.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Operator = scholarship.Operator(operator)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ReplaceRules swaps the scholarship's rule set atomically.
func (r *ScholarshipRepository) ReplaceRules(ctx context.Context, scholarshipID string, rules []scholarship.Rule) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_rules WHERE scholarship_id = $1`, scholarshipID); err != nil {
			return fmt.Errorf("failed to clear rules: %w", err)
		}
		for _, rule := range rules {
			_, err := tx.Exec(ctx, `
				INSERT INTO scholarship_rules (
					id, scholarship_id, sub_type_code, tag, condition_field,
					operator, expected_value, message, message_en,
					is_hard_rule, is_warning, priority, active
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				rule.ID,
				scholarshipID,
				rule.SubTypeCode,
				rule.Tag,
				rule.ConditionField,
				string(rule.Operator),
				rule.ExpectedValue,
				rule.Message,
				rule.MessageEN,
				rule.IsHardRule,
				rule.IsWarning,
				rule.Priority,
				rule.Active,
			)
			if err != nil {
				return fmt.Errorf("failed to insert rule %s: %w", rule.ID, err)
			}
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Whitelist & admin assignment
// ─────────────────────────────────────────────────────────────────────────────

// SetWhitelist replaces the scholarship's whitelist entries.
func (r *ScholarshipRepository) SetWhitelist(ctx context.Context, scholarshipID string, entries []student.StudentNo) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_whitelist WHERE scholarship_id = $1`, scholarshipID); err != nil {
			return fmt.Errorf("failed to clear whitelist: %w", err)
		}
		for _, no := range entries {
			if _, err := tx.Exec(ctx,
				`INSERT INTO scholarship_whitelist (scholarship_id, student_no) VALUES ($1, $2)`,
				scholarshipID, no.String()); err != nil {
				return fmt.Errorf("failed to insert whitelist entry: %w", err)
			}
		}
		return nil
	})
}

// AssignAdmin records that an admin manages the scholarship.
func (r *ScholarshipRepository) AssignAdmin(ctx context.Context, adminID, scholarshipID string) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO admin_scholarships (admin_id, scholarship_id)
		VALUES ($1, $2)
		ON CONFLICT (admin_id, scholarship_id) DO NOTHING`,
		adminID, scholarshipID)
	if err != nil {
		return fmt.Errorf("failed to assign admin: %w", err)
	}
	return nil
}

// ListAdminScholarships returns scholarships managed by the admin.
func (r *ScholarshipRepository) ListAdminScholarships(ctx context.Context, adminID string) ([]*scholarship.ScholarshipType, error) {
	query := `
		SELECT ` + scholarshipColumns + `
		FROM scholarship_types s
		JOIN admin_scholarships a ON a.scholarship_id = s.id
		WHERE a.admin_id = $1
		ORDER BY s.code
	`

	rows, err := r.conn.Query(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin scholarships: %w", err)
	}
	defer rows.Close()

	var result []*scholarship.ScholarshipType
	for rows.Next() {
		s, err := r.scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range result {
		if err := r.loadChildren(ctx, s); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ScholarshipRepository) loadScholarship(ctx context.Context, row pgx.Row) (*scholarship.ScholarshipType, error) {
	s, err := r.scanScholarship(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ScholarshipRepository) scanScholarship(row pgx.Row) (*scholarship.ScholarshipType, error) {
	var (
		s        scholarship.ScholarshipType
		code     string
		category string
		status   string
		types    []string
	)

	err := row.Scan(
		&s.ID,
		&code,
		&s.Name,
		&s.NameEN,
		&s.Amount,
		&s.Currency,
		&category,
		&types,
		&s.MinGPA,
		&s.MaxRankingPercent,
		&s.MaxCompletedTerms,
		&s.RequiredFields,
		&s.RequiredDocuments,
		&s.WhitelistEnabled,
		&s.ApplicationStart,
		&s.ApplicationEnd,
		&s.ReviewDeadline,
		&s.MaxApplicationsPerYear,
		&s.RequiresProfessorRecommendation,
		&s.RequiresCollegeReview,
		&status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, scholarship.ErrScholarshipNotFound
		}
		return nil, fmt.Errorf("failed to scan scholarship: %w", err)
	}

	s.Code = scholarship.Code(code)
	s.Category = scholarship.Category(category)
	s.Status = scholarship.Status(status)
	s.EligibleStudentTypes = stringsToStudentTypes(types)
	return &s, nil
}

// loadChildren attaches sub-types and whitelist entries.
func (r *ScholarshipRepository) loadChildren(ctx context.Context, s *scholarship.ScholarshipType) error {
	subRows, err := r.conn.Query(ctx,
		`SELECT code, name, name_en FROM scholarship_sub_types WHERE scholarship_id = $1 ORDER BY code`, s.ID)
	if err != nil {
		return fmt.Errorf("failed to query sub-types: %w", err)
	}
	defer subRows.Close()

	s.SubTypes = nil
	for subRows.Next() {
		var st scholarship.SubType
		if err := subRows.Scan(&st.Code, &st.Name, &st.NameEN); err != nil {
			return fmt.Errorf("failed to scan sub-type: %w", err)
		}
		s.SubTypes = append(s.SubTypes, st)
	}
	if err := subRows.Err(); err != nil {
		return err
	}

	wlRows, err := r.conn.Query(ctx,
		`SELECT student_no FROM scholarship_whitelist WHERE scholarship_id = $1`, s.ID)
	if err != nil {
		return fmt.Errorf("failed to query whitelist: %w", err)
	}
	defer wlRows.Close()

	s.Whitelist = nil
	for wlRows.Next() {
		var no string
		if err := wlRows.Scan(&no); err != nil {
			return fmt.Errorf("failed to scan whitelist entry: %w", err)
		}
		s.Whitelist = append(s.Whitelist, student.StudentNo(no))
	}
	return wlRows.Err()
}

func (r *ScholarshipRepository) saveSubTypes(ctx context.Context, s *scholarship.ScholarshipType) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_sub_types WHERE scholarship_id = $1`, s.ID); err != nil {
			return fmt.Errorf("failed to clear sub-types: %w", err)
		}
		for _, st := range s.SubTypes {
			if _, err := tx.Exec(ctx,
				`INSERT INTO scholarship_sub_types (scholarship_id, code, name, name_en) VALUES ($1, $2, $3, $4)`,
				s.ID, st.Code, st.Name, st.NameEN); err != nil {
				return fmt.Errorf("failed to insert sub-type: %w", err)
			}
		}
		return nil
	})
}

func studentTypesToStrings(types []student.Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func stringsToStudentTypes(values []string) []student.Type {
	if len(values) == 0 {
		return nil
	}
	out := make([]student.Type, 0, len(values))
	for _, v := range values {
		out = append(out, student.Type(v))
	}
	return out
}
