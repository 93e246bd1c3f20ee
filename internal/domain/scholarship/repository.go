package scholarship

import (
	"context"

	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// Repository defines persistence operations for scholarship types and their
// rules. Rules are owned by the scholarship and cascade-deleted with it.
type Repository interface {
	// Create persists a new scholarship type.
	Create(ctx context.Context, s *ScholarshipType) error

	// GetByID returns a scholarship by internal ID.
	GetByID(ctx context.Context, id string) (*ScholarshipType, error)

	// GetByCode returns a scholarship by its unique code.
	GetByCode(ctx context.Context, code Code) (*ScholarshipType, error)

	// ListActive returns all scholarships currently in active status.
	ListActive(ctx context.Context) ([]*ScholarshipType, error)

	// Update persists changes to an existing scholarship type.
	Update(ctx context.Context, s *ScholarshipType) error

	// Delete removes a scholarship and, via cascade, its rules.
	Delete(ctx context.Context, id string) error

	// GetRules returns every rule owned by the scholarship, active or not.
	GetRules(ctx context.Context, scholarshipID string) ([]Rule, error)

	// ReplaceRules swaps the scholarship's rule set atomically.
	ReplaceRules(ctx context.Context, scholarshipID string, rules []Rule) error

	// SetWhitelist replaces the scholarship's whitelist entries.
	SetWhitelist(ctx context.Context, scholarshipID string, entries []student.StudentNo) error

	// AssignAdmin records that an admin manages the scholarship.
	AssignAdmin(ctx context.Context, adminID, scholarshipID string) error

	// ListAdminScholarships returns scholarships managed by the admin.
	ListAdminScholarships(ctx context.Context, adminID string) ([]*ScholarshipType, error)
}
