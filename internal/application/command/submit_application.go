package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT APPLICATION COMMAND
// Moves a draft into the review pipeline after the required-field check.
// The submission notification is fired through the event bus, best-effort.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitApplicationCommand contains the data to submit a draft.
type SubmitApplicationCommand struct {
	Principal     identity.Principal
	ApplicationID string
}

// Validate validates the command.
func (c SubmitApplicationCommand) Validate() error {
	if c.ApplicationID == "" {
		return fmt.Errorf("submit_application: %w", shared.ErrInvalidID)
	}
	return nil
}

// SubmitApplicationHandler handles the SubmitApplicationCommand.
type SubmitApplicationHandler struct {
	applications application.Repository
	scholarships scholarship.Repository
	clock        shared.Clock
	publisher    shared.EventPublisher
}

// NewSubmitApplicationHandler creates a new SubmitApplicationHandler.
func NewSubmitApplicationHandler(
	applications application.Repository,
	scholarships scholarship.Repository,
	clock shared.Clock,
	publisher shared.EventPublisher,
) *SubmitApplicationHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &SubmitApplicationHandler{
		applications: applications,
		scholarships: scholarships,
		clock:        clock,
		publisher:    publisher,
	}
}

// Handle executes the submit application command.
func (h *SubmitApplicationHandler) Handle(ctx context.Context, cmd SubmitApplicationCommand) (*application.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("submit_application: failed to get application: %w", err)
	}
	if !cmd.Principal.CanEditApplication(app.StudentID) {
		return nil, application.ErrNotOwned
	}

	sch, err := h.scholarships.GetByCode(ctx, scholarship.Code(app.ScholarshipCode))
	if err != nil {
		return nil, fmt.Errorf("submit_application: failed to get scholarship: %w", err)
	}

	expected := app.Status
	if err := app.Submit(sch.RequiredFields, sch.RequiredDocuments, h.clock.Now()); err != nil {
		return nil, err
	}

	// Status and submitted_at commit atomically; a concurrent transition
	// surfaces as a conflict, not a silent overwrite.
	if err := h.applications.UpdateStatus(ctx, app, expected); err != nil {
		return nil, fmt.Errorf("submit_application: failed to persist: %w", err)
	}

	_ = h.publisher.Publish(application.NewSubmittedEvent(app))

	return app, nil
}
