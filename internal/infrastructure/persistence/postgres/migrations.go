package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// Embedded, versioned, applied in order inside transactions. The partial
// unique index in migration 3 is what makes the duplicate-application guard
// safe under concurrency: two simultaneous submits for the same student and
// scholarship cannot both commit.
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents one schema migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies embedded migrations.
type Migrator struct {
	conn      *Connection
	steps     []Migration
	tableName string
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:      conn,
		steps:     GetMigrations(),
		tableName: "schema_migrations",
	}
}

// EnsureMigrationTable creates the tracking table if needed.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the versions already applied.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, step := range m.steps {
		if _, done := applied[step.Version]; done {
			continue
		}
		if step.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, step.Version)
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, step.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", step.Version, err)
			}
			insert := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insert, step.Version, step.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, step.Version, err)
		}
	}
	return nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	var lastVersion int
	for v := range applied {
		if v > lastVersion {
			lastVersion = v
		}
	}
	if lastVersion == 0 {
		return nil
	}

	var step *Migration
	for i := range m.steps {
		if m.steps[i].Version == lastVersion {
			step = &m.steps[i]
			break
		}
	}
	if step == nil || step.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, lastVersion)
	}

	return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, step.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", lastVersion, err)
		}
		del := fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName)
		_, err := tx.Exec(ctx, del, lastVersion)
		return err
	})
}

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_students", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_scholarships", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_applications", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATION SQL
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE students (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	student_no TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'enrolled',

	degree TEXT NOT NULL DEFAULT '',
	enrollment_type TEXT NOT NULL DEFAULT '',
	nationality TEXT NOT NULL DEFAULT '',
	identity_code TEXT NOT NULL DEFAULT '',
	school_identity_code TEXT NOT NULL DEFAULT '',
	completed_terms INTEGER NOT NULL DEFAULT 0,
	gpa DOUBLE PRECISION NOT NULL DEFAULT 0,
	class_ranking_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	dept_ranking_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	enrollment_year INTEGER NOT NULL DEFAULT 0,
	enrollment_term INTEGER NOT NULL DEFAULT 0,

	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_students_user_id ON students(user_id);
`

const migration001Down = `
DROP TABLE IF EXISTS students;
`

const migration002Up = `
CREATE TABLE scholarship_types (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	name_en TEXT NOT NULL DEFAULT '',
	amount NUMERIC(12,2) NOT NULL,
	currency TEXT NOT NULL DEFAULT 'CNY',
	category TEXT NOT NULL DEFAULT '',
	eligible_student_types TEXT[] NOT NULL DEFAULT '{}',
	min_gpa DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_ranking_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_completed_terms INTEGER NOT NULL DEFAULT 0,
	required_fields TEXT[] NOT NULL DEFAULT '{}',
	required_documents TEXT[] NOT NULL DEFAULT '{}',
	whitelist_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	application_start TIMESTAMPTZ,
	application_end TIMESTAMPTZ,
	review_deadline TIMESTAMPTZ,
	max_applications_per_year INTEGER NOT NULL DEFAULT 0,
	requires_professor_recommendation BOOLEAN NOT NULL DEFAULT FALSE,
	requires_college_review BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL DEFAULT 'inactive',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE scholarship_sub_types (
	scholarship_id UUID NOT NULL REFERENCES scholarship_types(id) ON DELETE CASCADE,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	name_en TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (scholarship_id, code)
);

CREATE TABLE scholarship_rules (
	id UUID PRIMARY KEY,
	scholarship_id UUID NOT NULL REFERENCES scholarship_types(id) ON DELETE CASCADE,
	sub_type_code TEXT NOT NULL DEFAULT '',
	tag TEXT NOT NULL DEFAULT '',
	condition_field TEXT NOT NULL,
	operator TEXT NOT NULL,
	expected_value TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	message_en TEXT NOT NULL DEFAULT '',
	is_hard_rule BOOLEAN NOT NULL DEFAULT FALSE,
	is_warning BOOLEAN NOT NULL DEFAULT FALSE,
	priority INTEGER NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX idx_rules_scholarship ON scholarship_rules(scholarship_id);

CREATE TABLE scholarship_whitelist (
	scholarship_id UUID NOT NULL REFERENCES scholarship_types(id) ON DELETE CASCADE,
	student_no TEXT NOT NULL,
	PRIMARY KEY (scholarship_id, student_no)
);

CREATE TABLE admin_scholarships (
	admin_id TEXT NOT NULL,
	scholarship_id UUID NOT NULL REFERENCES scholarship_types(id) ON DELETE CASCADE,
	assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (admin_id, scholarship_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS admin_scholarships;
DROP TABLE IF EXISTS scholarship_whitelist;
DROP TABLE IF EXISTS scholarship_rules;
DROP TABLE IF EXISTS scholarship_sub_types;
DROP TABLE IF EXISTS scholarship_types;
`

const migration003Up = `
CREATE TABLE applications (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	student_no TEXT NOT NULL,
	scholarship_id UUID NOT NULL REFERENCES scholarship_types(id),
	scholarship_code TEXT NOT NULL,
	sub_type_codes TEXT[] NOT NULL DEFAULT '{}',
	academic_year INTEGER NOT NULL,
	snapshot JSONB NOT NULL,
	form_data JSONB NOT NULL DEFAULT '{}',
	documents JSONB NOT NULL DEFAULT '{}',
	status TEXT NOT NULL DEFAULT 'draft',
	professor_id TEXT NOT NULL DEFAULT '',
	reviewer_id TEXT NOT NULL DEFAULT '',
	comments TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	submitted_at TIMESTAMPTZ,
	reviewed_at TIMESTAMPTZ,
	approved_at TIMESTAMPTZ
);

CREATE INDEX idx_applications_student ON applications(student_id);
CREATE INDEX idx_applications_scholarship ON applications(scholarship_id, status);
CREATE INDEX idx_applications_professor ON applications(professor_id) WHERE professor_id <> '';

-- One active application per student per scholarship. Draft and terminal
-- statuses are excluded on purpose.
CREATE UNIQUE INDEX uniq_active_application
	ON applications(student_id, scholarship_code)
	WHERE status IN ('submitted', 'under_review', 'pending_recommendation', 'recommended');

CREATE TABLE application_reviews (
	id UUID PRIMARY KEY,
	application_id UUID NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	reviewer_id TEXT NOT NULL,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	comments TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_reviews_application ON application_reviews(application_id);

CREATE TABLE professor_reviews (
	id UUID PRIMARY KEY,
	application_id UUID NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	professor_id TEXT NOT NULL,
	selected_awards TEXT[] NOT NULL DEFAULT '{}',
	recommendation TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_professor_reviews_application ON professor_reviews(application_id);
`

const migration003Down = `
DROP TABLE IF EXISTS professor_reviews;
DROP TABLE IF EXISTS application_reviews;
DROP TABLE IF EXISTS applications;
`
