package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE STATUS COMMAND
// Staff-driven workflow transition. Re-sending an already-applied status is
// a no-op so client retries stay harmless; a genuinely concurrent transition
// surfaces as a conflict via the expected-status precondition.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateStatusCommand contains the data for a staff status update.
type UpdateStatusCommand struct {
	Principal       identity.Principal
	ApplicationID   string
	NewStatus       application.Status
	Comments        string
	RejectionReason string
}

// Validate validates the command.
func (c UpdateStatusCommand) Validate() error {
	if c.ApplicationID == "" {
		return fmt.Errorf("update_status: %w", shared.ErrInvalidID)
	}
	if !c.NewStatus.IsValid() {
		return fmt.Errorf("update_status: %w: %q", shared.ErrInvalidInput, c.NewStatus)
	}
	return nil
}

// UpdateStatusResult contains the result of a status update.
type UpdateStatusResult struct {
	Application *application.Application

	// Changed is false when the update was an idempotent retry.
	Changed bool
}

// UpdateStatusHandler handles the UpdateStatusCommand.
type UpdateStatusHandler struct {
	applications application.Repository
	clock        shared.Clock
	publisher    shared.EventPublisher
}

// NewUpdateStatusHandler creates a new UpdateStatusHandler.
func NewUpdateStatusHandler(applications application.Repository, clock shared.Clock, publisher shared.EventPublisher) *UpdateStatusHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &UpdateStatusHandler{applications: applications, clock: clock, publisher: publisher}
}

// Handle executes the update status command.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*UpdateStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Principal.CanReviewApplications() {
		return nil, identity.ErrRoleForbidden
	}

	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("update_status: failed to get application: %w", err)
	}

	from := app.Status
	if err := app.ApplyStatusChange(application.StatusChange{
		NewStatus:       cmd.NewStatus,
		ReviewerID:      cmd.Principal.ID,
		Comments:        cmd.Comments,
		RejectionReason: cmd.RejectionReason,
		At:              h.clock.Now(),
	}); err != nil {
		return nil, err
	}

	// Idempotent retry: nothing changed, nothing to persist or announce.
	if app.Status == from {
		return &UpdateStatusResult{Application: app, Changed: false}, nil
	}

	if err := h.applications.UpdateStatus(ctx, app, from); err != nil {
		return nil, fmt.Errorf("update_status: failed to persist: %w", err)
	}

	_ = h.publisher.Publish(application.NewStatusChangedEvent(app, from))

	return &UpdateStatusResult{Application: app, Changed: true}, nil
}
