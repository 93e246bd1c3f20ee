package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleIsValid(t *testing.T) {
	for _, r := range []Role{RoleStudent, RoleProfessor, RoleCollege, RoleAdmin, RoleSuperAdmin} {
		assert.True(t, r.IsValid(), "%s", r)
	}
	assert.False(t, Role("teacher").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestRoleIsStaff(t *testing.T) {
	assert.False(t, RoleStudent.IsStaff())
	assert.False(t, RoleProfessor.IsStaff())
	assert.True(t, RoleCollege.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleSuperAdmin.IsStaff())
}

func TestCanEditApplication(t *testing.T) {
	owner := Principal{ID: "u1", Role: RoleStudent, StudentID: "stu-1"}
	other := Principal{ID: "u2", Role: RoleStudent, StudentID: "stu-2"}
	admin := Principal{ID: "u3", Role: RoleAdmin}

	assert.True(t, owner.CanEditApplication("stu-1"))
	assert.False(t, other.CanEditApplication("stu-1"))
	assert.False(t, admin.CanEditApplication("stu-1"), "staff never edit student drafts")

	assert.True(t, owner.CanCancelApplication("stu-1"))
	assert.False(t, admin.CanCancelApplication("stu-1"))
}

func TestReviewPermissions(t *testing.T) {
	professor := Principal{ID: "u1", Role: RoleProfessor}
	college := Principal{ID: "u2", Role: RoleCollege}
	studentP := Principal{ID: "u3", Role: RoleStudent, StudentID: "stu-1"}

	assert.True(t, college.CanReviewApplications())
	assert.False(t, professor.CanReviewApplications(), "professors use the recommendation flow, not status updates")
	assert.False(t, studentP.CanReviewApplications())

	assert.True(t, professor.CanSubmitProfessorReview())
	assert.False(t, college.CanSubmitProfessorReview())
}

func TestCanManageScholarships(t *testing.T) {
	assert.True(t, Principal{Role: RoleAdmin}.CanManageScholarships())
	assert.True(t, Principal{Role: RoleSuperAdmin}.CanManageScholarships())
	assert.False(t, Principal{Role: RoleCollege}.CanManageScholarships())
	assert.False(t, Principal{Role: RoleStudent}.CanManageScholarships())
}
