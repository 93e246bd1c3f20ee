package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/notification"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON STATUS CHANGED
// Tells the student where their application moved. Approval and rejection
// get urgent priority; intermediate steps stay normal.
// ══════════════════════════════════════════════════════════════════════════════

// OnStatusChangedHandler reacts to application.status_changed events.
type OnStatusChangedHandler struct {
	students   student.Repository
	dispatcher notification.Dispatcher
	logger     *slog.Logger
	timeout    time.Duration
}

// NewOnStatusChangedHandler creates the handler.
func NewOnStatusChangedHandler(students student.Repository, dispatcher notification.Dispatcher, logger *slog.Logger) *OnStatusChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnStatusChangedHandler{
		students:   students,
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    10 * time.Second,
	}
}

// Handle processes one application.status_changed event.
func (h *OnStatusChangedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	payload := event.Payload()
	studentID, _ := payload["student_id"].(string)
	scholarshipCode, _ := payload["scholarship_code"].(string)
	toStatus, _ := payload["to_status"].(string)

	stud, err := h.students.GetByID(ctx, studentID)
	if err != nil {
		h.logger.Warn("status notification: student lookup failed",
			slog.String("student_id", studentID),
			slog.String("error", err.Error()))
		return nil
	}

	priority := notification.PriorityNormal
	switch application.Status(toStatus) {
	case application.StatusApproved, application.StatusRejected:
		priority = notification.PriorityUrgent
	}

	n, err := notification.New(stud.UserID,
		"申请状态更新 / Application status updated",
		fmt.Sprintf("Your application for %s is now %s.", scholarshipCode, toStatus),
		priority,
		notification.RelatedResource{
			Kind: notification.ResourceApplication,
			ID:   event.AggregateID(),
		})
	if err != nil {
		return nil
	}
	if err := h.dispatcher.Dispatch(ctx, n); err != nil {
		h.logger.Warn("status notification: dispatch failed",
			slog.String("student_id", studentID),
			slog.String("to_status", toStatus),
			slog.String("error", err.Error()))
	}
	return nil
}
