package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT PROFESSOR REVIEW COMMAND
// The assigned professor files a recommendation. Selecting at least one
// award moves the application to recommended; an empty selection parks it in
// pending_recommendation until the professor decides.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitProfessorReviewCommand contains the professor's recommendation.
type SubmitProfessorReviewCommand struct {
	Principal      identity.Principal
	ApplicationID  string
	SelectedAwards []string
	Recommendation string
}

// Validate validates the command.
func (c SubmitProfessorReviewCommand) Validate() error {
	if c.ApplicationID == "" {
		return fmt.Errorf("submit_professor_review: %w", shared.ErrInvalidID)
	}
	return nil
}

// SubmitProfessorReviewHandler handles the SubmitProfessorReviewCommand.
type SubmitProfessorReviewHandler struct {
	applications application.Repository
	ids          IDGenerator
	clock        shared.Clock
	publisher    shared.EventPublisher
}

// NewSubmitProfessorReviewHandler creates a new SubmitProfessorReviewHandler.
func NewSubmitProfessorReviewHandler(
	applications application.Repository,
	ids IDGenerator,
	clock shared.Clock,
	publisher shared.EventPublisher,
) *SubmitProfessorReviewHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &SubmitProfessorReviewHandler{
		applications: applications,
		ids:          ids,
		clock:        clock,
		publisher:    publisher,
	}
}

// Handle executes the submit professor review command.
func (h *SubmitProfessorReviewHandler) Handle(ctx context.Context, cmd SubmitProfessorReviewCommand) (*application.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Principal.CanSubmitProfessorReview() {
		return nil, identity.ErrRoleForbidden
	}

	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("submit_professor_review: failed to get application: %w", err)
	}

	from := app.Status
	if err := app.RecordProfessorReview(cmd.Principal.ID, cmd.SelectedAwards, cmd.Recommendation, h.clock.Now()); err != nil {
		return nil, err
	}

	review := app.ProfessorReviews[len(app.ProfessorReviews)-1]
	review.ID = h.ids.NewID()
	app.ProfessorReviews[len(app.ProfessorReviews)-1] = review

	if app.Status != from {
		// UpdateStatus persists the transition and the appended review
		// record as one unit.
		if err := h.applications.UpdateStatus(ctx, app, from); err != nil {
			return nil, fmt.Errorf("submit_professor_review: failed to persist: %w", err)
		}
	} else if err := h.applications.AddProfessorReview(ctx, review); err != nil {
		return nil, fmt.Errorf("submit_professor_review: failed to persist review: %w", err)
	}

	_ = h.publisher.Publish(application.NewProfessorReviewedEvent(app, review))

	return app, nil
}
