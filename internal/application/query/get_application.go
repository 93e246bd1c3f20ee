// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET APPLICATION QUERY
// Returns one application with its review trails, enforcing visibility:
// students see their own, professors see assignments, staff see everything.
// ══════════════════════════════════════════════════════════════════════════════

// GetApplicationQuery contains the parameters for fetching an application.
type GetApplicationQuery struct {
	Principal     identity.Principal
	ApplicationID string
}

// GetApplicationHandler handles the GetApplicationQuery.
type GetApplicationHandler struct {
	applications application.Repository
}

// NewGetApplicationHandler creates a new GetApplicationHandler.
func NewGetApplicationHandler(applications application.Repository) *GetApplicationHandler {
	return &GetApplicationHandler{applications: applications}
}

// Handle executes the query.
func (h *GetApplicationHandler) Handle(ctx context.Context, q GetApplicationQuery) (*application.Application, error) {
	if q.ApplicationID == "" {
		return nil, fmt.Errorf("get_application: %w", shared.ErrInvalidID)
	}

	app, err := h.applications.GetByID(ctx, q.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get_application: %w", err)
	}

	switch q.Principal.Role {
	case identity.RoleStudent:
		if !app.IsOwnedBy(q.Principal.StudentID) {
			return nil, application.ErrNotOwned
		}
	case identity.RoleProfessor:
		if !app.IsAssignedProfessor(q.Principal.ID) {
			return nil, application.ErrNotAssignedProfessor
		}
	case identity.RoleCollege, identity.RoleAdmin, identity.RoleSuperAdmin:
		// Staff bypass ownership checks for review operations.
	default:
		return nil, identity.ErrUnknownRole
	}

	return app, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListMyApplicationsHandler returns the caller's own applications.
type ListMyApplicationsHandler struct {
	applications application.Repository
}

// NewListMyApplicationsHandler creates a new ListMyApplicationsHandler.
func NewListMyApplicationsHandler(applications application.Repository) *ListMyApplicationsHandler {
	return &ListMyApplicationsHandler{applications: applications}
}

// Handle returns the student principal's applications, newest first.
func (h *ListMyApplicationsHandler) Handle(ctx context.Context, p identity.Principal) ([]*application.Application, error) {
	if p.Role != identity.RoleStudent || p.StudentID == "" {
		return nil, identity.ErrRoleForbidden
	}
	apps, err := h.applications.ListByStudent(ctx, p.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list_my_applications: %w", err)
	}
	return apps, nil
}

// ListReviewQueueQuery filters the staff review queue.
type ListReviewQueueQuery struct {
	Principal     identity.Principal
	ScholarshipID string

	// Status narrows the queue; empty means all statuses.
	Status application.Status
}

// ListReviewQueueHandler returns applications for staff review screens.
type ListReviewQueueHandler struct {
	applications application.Repository
}

// NewListReviewQueueHandler creates a new ListReviewQueueHandler.
func NewListReviewQueueHandler(applications application.Repository) *ListReviewQueueHandler {
	return &ListReviewQueueHandler{applications: applications}
}

// Handle executes the query.
func (h *ListReviewQueueHandler) Handle(ctx context.Context, q ListReviewQueueQuery) ([]*application.Application, error) {
	switch {
	case q.Principal.CanReviewApplications():
		apps, err := h.applications.ListByScholarship(ctx, q.ScholarshipID, q.Status)
		if err != nil {
			return nil, fmt.Errorf("list_review_queue: %w", err)
		}
		return apps, nil
	case q.Principal.CanSubmitProfessorReview():
		apps, err := h.applications.ListForProfessor(ctx, q.Principal.ID)
		if err != nil {
			return nil, fmt.Errorf("list_review_queue: %w", err)
		}
		return apps, nil
	default:
		return nil, identity.ErrRoleForbidden
	}
}
