package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/notification"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON PROFESSOR REVIEWED
// Alerts the college reviewers that a recommendation landed and the
// application is ready for the next stage.
// ══════════════════════════════════════════════════════════════════════════════

// OnProfessorReviewedHandler reacts to application.professor_reviewed events.
type OnProfessorReviewedHandler struct {
	dispatcher notification.Dispatcher
	logger     *slog.Logger

	// collegeReviewerIDs are the staff users alerted after each
	// recommendation, wired from configuration.
	collegeReviewerIDs []string

	timeout time.Duration
}

// NewOnProfessorReviewedHandler creates the handler.
func NewOnProfessorReviewedHandler(dispatcher notification.Dispatcher, collegeReviewerIDs []string, logger *slog.Logger) *OnProfessorReviewedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnProfessorReviewedHandler{
		dispatcher:         dispatcher,
		logger:             logger,
		collegeReviewerIDs: collegeReviewerIDs,
		timeout:            10 * time.Second,
	}
}

// Handle processes one application.professor_reviewed event.
func (h *OnProfessorReviewedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	payload := event.Payload()
	scholarshipCode, _ := payload["scholarship_code"].(string)
	resultingStatus, _ := payload["resulting_status"].(string)

	related := notification.RelatedResource{
		Kind: notification.ResourceApplication,
		ID:   event.AggregateID(),
	}

	for _, reviewerID := range h.collegeReviewerIDs {
		n, err := notification.New(reviewerID,
			"教授已推荐 / Professor review filed",
			fmt.Sprintf("An application for %s moved to %s after professor review.", scholarshipCode, resultingStatus),
			notification.PriorityNormal, related)
		if err != nil {
			continue
		}
		if err := h.dispatcher.Dispatch(ctx, n); err != nil {
			h.logger.Warn("professor review notification: dispatch failed",
				slog.String("reviewer_id", reviewerID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
