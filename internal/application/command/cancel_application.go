package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL APPLICATION COMMAND
// Withdraws an application. Legal from draft and the reviewable statuses;
// an application parked with the professor cannot be withdrawn.
// ══════════════════════════════════════════════════════════════════════════════

// CancelApplicationCommand contains the data to cancel an application.
type CancelApplicationCommand struct {
	Principal     identity.Principal
	ApplicationID string
}

// Validate validates the command.
func (c CancelApplicationCommand) Validate() error {
	if c.ApplicationID == "" {
		return fmt.Errorf("cancel_application: %w", shared.ErrInvalidID)
	}
	return nil
}

// CancelApplicationHandler handles the CancelApplicationCommand.
type CancelApplicationHandler struct {
	applications application.Repository
	clock        shared.Clock
	publisher    shared.EventPublisher
}

// NewCancelApplicationHandler creates a new CancelApplicationHandler.
func NewCancelApplicationHandler(applications application.Repository, clock shared.Clock, publisher shared.EventPublisher) *CancelApplicationHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CancelApplicationHandler{applications: applications, clock: clock, publisher: publisher}
}

// Handle executes the cancel application command.
func (h *CancelApplicationHandler) Handle(ctx context.Context, cmd CancelApplicationCommand) (*application.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("cancel_application: failed to get application: %w", err)
	}
	if !cmd.Principal.CanCancelApplication(app.StudentID) {
		return nil, application.ErrNotOwned
	}

	expected := app.Status
	if err := app.Cancel(h.clock.Now()); err != nil {
		return nil, err
	}

	if err := h.applications.UpdateStatus(ctx, app, expected); err != nil {
		return nil, fmt.Errorf("cancel_application: failed to persist: %w", err)
	}

	_ = h.publisher.Publish(application.NewCancelledEvent(app))

	return app, nil
}
