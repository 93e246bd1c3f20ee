// Package identity contains the authenticated principal and the role model
// that authorizes workflow operations.
package identity

import (
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// Role is an access role carried by an authenticated principal.
type Role string

const (
	RoleStudent    Role = "student"
	RoleProfessor  Role = "professor"
	RoleCollege    Role = "college"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsValid checks that the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleCollege, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsStaff returns true for roles that act on applications they do not own.
func (r Role) IsStaff() bool {
	switch r {
	case RoleCollege, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Principal is the authenticated caller of a workflow operation.
type Principal struct {
	// ID - the user id from the authentication token.
	ID string

	// Role - the caller's access role.
	Role Role

	// StudentID - the owned student record, set only for student principals.
	StudentID string
}

// Authorization errors.
var (
	// ErrUnknownRole - the token carried a role the system does not know.
	ErrUnknownRole = shared.NewDomainError("identity", "Authorize", shared.ErrUnauthorized, "unknown role")

	// ErrRoleForbidden - the role may not perform the operation.
	ErrRoleForbidden = shared.NewDomainError("identity", "Authorize", shared.ErrForbidden, "role is not allowed to perform this operation")
)

// CanEditApplication returns true if the principal may edit the application
// owned by ownerStudentID. Students edit only their own; staff never edit
// student drafts.
func (p Principal) CanEditApplication(ownerStudentID string) bool {
	return p.Role == RoleStudent && p.StudentID == ownerStudentID
}

// CanCancelApplication follows the same ownership rule as editing.
func (p Principal) CanCancelApplication(ownerStudentID string) bool {
	return p.CanEditApplication(ownerStudentID)
}

// CanReviewApplications returns true for staff roles that drive the review
// pipeline via status updates.
func (p Principal) CanReviewApplications() bool {
	return p.Role.IsStaff()
}

// CanSubmitProfessorReview returns true if the principal is a professor;
// assignment to the specific application is checked by the aggregate.
func (p Principal) CanSubmitProfessorReview() bool {
	return p.Role == RoleProfessor
}

// CanManageScholarships returns true for roles that configure scholarships,
// rules, and whitelists.
func (p Principal) CanManageScholarships() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}
