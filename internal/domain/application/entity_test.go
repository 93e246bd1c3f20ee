package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

func newDraft(t *testing.T) *Application {
	t.Helper()
	app, err := NewApplication(NewApplicationParams{
		ID:              "app-1",
		StudentID:       "stu-1",
		StudentNo:       "20230001",
		ScholarshipID:   "sch-1",
		ScholarshipCode: "NATIONAL-2026",
		AcademicYear:    2026,
		Snapshot:        student.AcademicSnapshot{Degree: "bachelor", GPA: 3.5},
		FormData:        map[string]string{"motivation": "text"},
		ProfessorID:     "prof-1",
	})
	require.NoError(t, err)
	return app
}

func TestStatusTransitionMatrix(t *testing.T) {
	all := []Status{
		StatusDraft, StatusSubmitted, StatusUnderReview, StatusPendingRecommendation,
		StatusRecommended, StatusApproved, StatusRejected, StatusCancelled,
	}

	allowed := map[Status][]Status{
		StatusDraft:                 {StatusSubmitted, StatusCancelled},
		StatusSubmitted:             {StatusUnderReview, StatusPendingRecommendation, StatusRecommended, StatusApproved, StatusRejected, StatusCancelled},
		StatusUnderReview:           {StatusPendingRecommendation, StatusRecommended, StatusApproved, StatusRejected, StatusCancelled},
		StatusPendingRecommendation: {StatusRecommended},
		StatusRecommended:           {StatusApproved, StatusRejected, StatusCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusDraft.IsEditable())
	for _, s := range []Status{StatusSubmitted, StatusUnderReview, StatusPendingRecommendation, StatusRecommended, StatusApproved, StatusRejected, StatusCancelled} {
		assert.False(t, s.IsEditable(), "%s must not be editable", s)
	}

	for _, s := range []Status{StatusSubmitted, StatusUnderReview, StatusRecommended} {
		assert.True(t, s.CanBeReviewed(), "%s", s)
	}
	for _, s := range []Status{StatusDraft, StatusPendingRecommendation, StatusApproved, StatusRejected, StatusCancelled} {
		assert.False(t, s.CanBeReviewed(), "%s", s)
	}

	for _, s := range []Status{StatusApproved, StatusRejected, StatusCancelled} {
		assert.True(t, s.IsTerminal(), "%s", s)
	}

	assert.False(t, Status("bogus").IsValid())
}

func TestActiveStatusesExcludeDraft(t *testing.T) {
	assert.NotContains(t, ActiveStatuses, StatusDraft)
	assert.NotContains(t, ActiveStatuses, StatusCancelled)
	assert.Contains(t, ActiveStatuses, StatusSubmitted)
	assert.Contains(t, ActiveStatuses, StatusPendingRecommendation)
}

func TestSubmit(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("happy path", func(t *testing.T) {
		app := newDraft(t)
		require.NoError(t, app.Submit([]string{"motivation"}, nil, now))
		assert.Equal(t, StatusSubmitted, app.Status)
		require.NotNil(t, app.SubmittedAt)
		assert.Equal(t, now, *app.SubmittedAt)
	})

	t.Run("missing required field", func(t *testing.T) {
		app := newDraft(t)
		err := app.Submit([]string{"motivation", "bank_account"}, nil, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, StatusDraft, app.Status)
	})

	t.Run("missing required document", func(t *testing.T) {
		app := newDraft(t)
		err := app.Submit(nil, []string{"transcript"}, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("blank value counts as missing", func(t *testing.T) {
		app := newDraft(t)
		app.FormData["motivation"] = "   "
		err := app.Submit([]string{"motivation"}, nil, now)
		require.Error(t, err)
	})

	t.Run("not a draft", func(t *testing.T) {
		app := newDraft(t)
		require.NoError(t, app.Submit(nil, nil, now))
		assert.ErrorIs(t, app.Submit(nil, nil, now), ErrNotDraft)
	})
}

func TestUpdateFormOnlyInDraft(t *testing.T) {
	now := time.Now().UTC()
	app := newDraft(t)

	require.NoError(t, app.UpdateForm(map[string]string{"motivation": "updated"}))
	require.NoError(t, app.AttachDocument("transcript", "files/t.pdf"))

	require.NoError(t, app.Submit(nil, nil, now))

	assert.ErrorIs(t, app.UpdateForm(map[string]string{"x": "y"}), ErrNotDraft)
	assert.ErrorIs(t, app.AttachDocument("other", "f"), ErrNotDraft)
}

func TestCancel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("from draft", func(t *testing.T) {
		app := newDraft(t)
		require.NoError(t, app.Cancel(now))
		assert.Equal(t, StatusCancelled, app.Status)
	})

	t.Run("from submitted", func(t *testing.T) {
		app := newDraft(t)
		require.NoError(t, app.Submit(nil, nil, now))
		require.NoError(t, app.Cancel(now))
	})

	t.Run("not from pending_recommendation", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusPendingRecommendation
		err := app.Cancel(now)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStateTransition)
	})

	t.Run("not from terminal", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusApproved
		assert.Error(t, app.Cancel(now))
	})
}

func TestApplyStatusChange(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("legal transition records a review", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusSubmitted

		err := app.ApplyStatusChange(StatusChange{
			NewStatus:  StatusUnderReview,
			ReviewerID: "staff-1",
			Comments:   "picked up",
			At:         now,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusUnderReview, app.Status)
		require.Len(t, app.Reviews, 1)
		assert.Equal(t, StatusSubmitted, app.Reviews[0].FromStatus)
		assert.Equal(t, StatusUnderReview, app.Reviews[0].ToStatus)
		require.NotNil(t, app.ReviewedAt)
	})

	t.Run("equal status is an idempotent no-op", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusUnderReview

		err := app.ApplyStatusChange(StatusChange{NewStatus: StatusUnderReview, ReviewerID: "staff-1", At: now})
		require.NoError(t, err)
		assert.Empty(t, app.Reviews, "no-op must not append a review")
	})

	t.Run("illegal transition", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusSubmitted

		err := app.ApplyStatusChange(StatusChange{NewStatus: StatusDraft, At: now})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStateTransition)
	})

	t.Run("decision is legal from every reviewable status", func(t *testing.T) {
		for _, from := range []Status{StatusSubmitted, StatusUnderReview, StatusRecommended} {
			app := newDraft(t)
			app.Status = from
			require.NoError(t, app.ApplyStatusChange(StatusChange{NewStatus: StatusApproved, ReviewerID: "staff-1", At: now}), "%s -> approved", from)

			app = newDraft(t)
			app.Status = from
			require.NoError(t, app.ApplyStatusChange(StatusChange{NewStatus: StatusRejected, RejectionReason: "incomplete record", At: now}), "%s -> rejected", from)
		}
	})

	t.Run("competing decisions from one read are both legal", func(t *testing.T) {
		// Two reviewers load the same submitted application; either decision
		// passes the workflow guard. The store's expected-status write is what
		// arbitrates which one commits.
		app := newDraft(t)
		app.Status = StatusSubmitted
		winner := app.Clone()
		loser := app.Clone()

		require.NoError(t, winner.ApplyStatusChange(StatusChange{NewStatus: StatusApproved, ReviewerID: "staff-1", At: now}))
		require.NoError(t, loser.ApplyStatusChange(StatusChange{NewStatus: StatusRejected, ReviewerID: "staff-2", RejectionReason: "duplicate award", At: now}))
	})

	t.Run("rejection requires a reason", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusRecommended

		err := app.ApplyStatusChange(StatusChange{NewStatus: StatusRejected, At: now})
		assert.ErrorIs(t, err, ErrRejectionReasonNeeded)

		err = app.ApplyStatusChange(StatusChange{NewStatus: StatusRejected, RejectionReason: "GPA below threshold", At: now})
		require.NoError(t, err)
		assert.Equal(t, "GPA below threshold", app.RejectionReason)
	})

	t.Run("approval stamps ApprovedAt", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusRecommended

		require.NoError(t, app.ApplyStatusChange(StatusChange{NewStatus: StatusApproved, ReviewerID: "staff-1", At: now}))
		require.NotNil(t, app.ApprovedAt)
		assert.Equal(t, now, *app.ApprovedAt)
	})

	t.Run("unknown status", func(t *testing.T) {
		app := newDraft(t)
		err := app.ApplyStatusChange(StatusChange{NewStatus: "bogus", At: now})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestRecordProfessorReview(t *testing.T) {
	now := time.Now().UTC()

	t.Run("awards selected moves to recommended", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusUnderReview

		err := app.RecordProfessorReview("prof-1", []string{"first-prize"}, "strong candidate", now)
		require.NoError(t, err)
		assert.Equal(t, StatusRecommended, app.Status)
		require.Len(t, app.ProfessorReviews, 1)
		assert.Equal(t, []string{"first-prize"}, app.ProfessorReviews[0].SelectedAwards)
	})

	t.Run("empty selection parks in pending_recommendation", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusUnderReview

		require.NoError(t, app.RecordProfessorReview("prof-1", nil, "needs discussion", now))
		assert.Equal(t, StatusPendingRecommendation, app.Status)
	})

	t.Run("parked review can be completed later", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusUnderReview

		require.NoError(t, app.RecordProfessorReview("prof-1", nil, "come back later", now))
		require.Equal(t, StatusPendingRecommendation, app.Status)

		require.NoError(t, app.RecordProfessorReview("prof-1", []string{"second-prize"}, "decided", now))
		assert.Equal(t, StatusRecommended, app.Status)
		assert.Len(t, app.ProfessorReviews, 2)
	})

	t.Run("review lands on a submitted application", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusSubmitted

		require.NoError(t, app.RecordProfessorReview("prof-1", []string{"first-prize"}, "fast-tracked", now))
		assert.Equal(t, StatusRecommended, app.Status)
	})

	t.Run("unassigned professor is rejected", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusUnderReview

		err := app.RecordProfessorReview("prof-2", []string{"x"}, "", now)
		assert.ErrorIs(t, err, ErrNotAssignedProfessor)
	})

	t.Run("draft cannot be reviewed", func(t *testing.T) {
		app := newDraft(t)
		err := app.RecordProfessorReview("prof-1", []string{"x"}, "", now)
		assert.ErrorIs(t, err, ErrNotReviewable)
	})
}

func TestIsOwnedBy(t *testing.T) {
	app := newDraft(t)
	assert.True(t, app.IsOwnedBy("stu-1"))
	assert.False(t, app.IsOwnedBy("stu-2"))
	assert.True(t, app.IsAssignedProfessor("prof-1"))
	assert.False(t, app.IsAssignedProfessor(""))
}
