// Package eventhandler contains domain event handlers. Handlers are the
// reactive part of the system: they run side effects such as notification
// dispatch after a workflow transition commits. Every handler is
// best-effort; its errors are logged by the bus, never returned to the
// request that triggered the event.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/notification"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON APPLICATION SUBMITTED
// Confirms the submission to the student and alerts the assigned professor
// that a recommendation is waiting.
// ══════════════════════════════════════════════════════════════════════════════

// OnApplicationSubmittedHandler reacts to application.submitted events.
type OnApplicationSubmittedHandler struct {
	students   student.Repository
	dispatcher notification.Dispatcher
	logger     *slog.Logger
	timeout    time.Duration
}

// NewOnApplicationSubmittedHandler creates the handler.
func NewOnApplicationSubmittedHandler(students student.Repository, dispatcher notification.Dispatcher, logger *slog.Logger) *OnApplicationSubmittedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnApplicationSubmittedHandler{
		students:   students,
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    10 * time.Second,
	}
}

// Handle processes one application.submitted event.
func (h *OnApplicationSubmittedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	payload := event.Payload()
	studentID, _ := payload["student_id"].(string)
	scholarshipCode, _ := payload["scholarship_code"].(string)
	professorID, _ := payload["professor_id"].(string)

	related := notification.RelatedResource{
		Kind: notification.ResourceApplication,
		ID:   event.AggregateID(),
	}

	// Confirmation to the student.
	if stud, err := h.students.GetByID(ctx, studentID); err != nil {
		h.logger.Warn("submitted notification: student lookup failed",
			slog.String("student_id", studentID),
			slog.String("error", err.Error()))
	} else {
		h.dispatch(ctx, stud.UserID,
			"申请已提交 / Application submitted",
			fmt.Sprintf("Your application for %s has been submitted for review.", scholarshipCode),
			notification.PriorityNormal, related)
	}

	// Heads-up to the assigned professor.
	if professorID != "" {
		h.dispatch(ctx, professorID,
			"待推荐申请 / Recommendation requested",
			fmt.Sprintf("An application for %s is awaiting your recommendation.", scholarshipCode),
			notification.PriorityHigh, related)
	}
	return nil
}

func (h *OnApplicationSubmittedHandler) dispatch(ctx context.Context, recipient, title, message string, priority notification.Priority, related notification.RelatedResource) {
	n, err := notification.New(recipient, title, message, priority, related)
	if err != nil {
		h.logger.Warn("submitted notification: invalid notification",
			slog.String("recipient", recipient),
			slog.String("error", err.Error()))
		return
	}
	if err := h.dispatcher.Dispatch(ctx, n); err != nil {
		h.logger.Warn("submitted notification: dispatch failed",
			slog.String("recipient", recipient),
			slog.String("error", err.Error()))
	}
}
