package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE APPLICATION COMMAND
// Replaces the form payload of a draft. Only the owning student may edit,
// and only while the application is still in draft.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateApplicationCommand contains the data to update a draft.
type UpdateApplicationCommand struct {
	Principal     identity.Principal
	ApplicationID string
	FormData      map[string]string

	// Documents maps document slots to uploaded file references; nil means
	// leave documents untouched.
	Documents map[string]string
}

// Validate validates the command.
func (c UpdateApplicationCommand) Validate() error {
	if c.ApplicationID == "" {
		return fmt.Errorf("update_application: %w", shared.ErrInvalidID)
	}
	return nil
}

// UpdateApplicationHandler handles the UpdateApplicationCommand.
type UpdateApplicationHandler struct {
	applications application.Repository
	publisher    shared.EventPublisher
}

// NewUpdateApplicationHandler creates a new UpdateApplicationHandler.
func NewUpdateApplicationHandler(applications application.Repository, publisher shared.EventPublisher) *UpdateApplicationHandler {
	return &UpdateApplicationHandler{applications: applications, publisher: publisher}
}

// Handle executes the update application command.
func (h *UpdateApplicationHandler) Handle(ctx context.Context, cmd UpdateApplicationCommand) (*application.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("update_application: failed to get application: %w", err)
	}
	if !cmd.Principal.CanEditApplication(app.StudentID) {
		return nil, application.ErrNotOwned
	}

	if cmd.FormData != nil {
		if err := app.UpdateForm(cmd.FormData); err != nil {
			return nil, err
		}
	}
	for slot, ref := range cmd.Documents {
		if err := app.AttachDocument(slot, ref); err != nil {
			return nil, err
		}
	}

	if err := h.applications.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("update_application: failed to persist: %w", err)
	}
	return app, nil
}
