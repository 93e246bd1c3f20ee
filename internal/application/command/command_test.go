package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/application/eligibility"
	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ──────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeStudentRepo struct {
	students map[string]*student.Student
}

func (f *fakeStudentRepo) Create(_ context.Context, s *student.Student) error {
	f.students[s.ID] = s
	return nil
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id string) (*student.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return s, nil
}

func (f *fakeStudentRepo) GetByUserID(_ context.Context, userID string) (*student.Student, error) {
	for _, s := range f.students {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, student.ErrStudentNotFound
}

func (f *fakeStudentRepo) GetByStudentNo(_ context.Context, no student.StudentNo) (*student.Student, error) {
	for _, s := range f.students {
		if s.StudentNo == no {
			return s, nil
		}
	}
	return nil, student.ErrStudentNotFound
}

func (f *fakeStudentRepo) Update(_ context.Context, s *student.Student) error {
	f.students[s.ID] = s
	return nil
}

type fakeScholarshipRepo struct {
	byCode map[scholarship.Code]*scholarship.ScholarshipType
	rules  []scholarship.Rule
}

func (f *fakeScholarshipRepo) Create(_ context.Context, s *scholarship.ScholarshipType) error {
	f.byCode[s.Code] = s
	return nil
}

func (f *fakeScholarshipRepo) GetByID(_ context.Context, id string) (*scholarship.ScholarshipType, error) {
	for _, s := range f.byCode {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, scholarship.ErrScholarshipNotFound
}

func (f *fakeScholarshipRepo) GetByCode(_ context.Context, code scholarship.Code) (*scholarship.ScholarshipType, error) {
	s, ok := f.byCode[code]
	if !ok {
		return nil, scholarship.ErrScholarshipNotFound
	}
	return s, nil
}

func (f *fakeScholarshipRepo) ListActive(_ context.Context) ([]*scholarship.ScholarshipType, error) {
	var out []*scholarship.ScholarshipType
	for _, s := range f.byCode {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScholarshipRepo) Update(_ context.Context, s *scholarship.ScholarshipType) error {
	f.byCode[s.Code] = s
	return nil
}

func (f *fakeScholarshipRepo) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeScholarshipRepo) GetRules(_ context.Context, _ string) ([]scholarship.Rule, error) {
	return f.rules, nil
}

func (f *fakeScholarshipRepo) ReplaceRules(_ context.Context, _ string, rules []scholarship.Rule) error {
	f.rules = rules
	return nil
}

func (f *fakeScholarshipRepo) SetWhitelist(_ context.Context, _ string, _ []student.StudentNo) error {
	return nil
}

func (f *fakeScholarshipRepo) AssignAdmin(_ context.Context, _, _ string) error { return nil }

func (f *fakeScholarshipRepo) ListAdminScholarships(_ context.Context, _ string) ([]*scholarship.ScholarshipType, error) {
	return nil, nil
}

type fakeApplicationRepo struct {
	apps map[string]*application.Application

	hasActive bool
	yearCount int

	statusConflict bool

	reviews          []application.Review
	professorReviews []application.ProfessorReview
	seenReviewIDs    map[string]bool
	reviewSeq        int
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{
		apps:          make(map[string]*application.Application),
		seenReviewIDs: make(map[string]bool),
	}
}

func (f *fakeApplicationRepo) Create(_ context.Context, a *application.Application) error {
	if f.hasActive {
		return application.ErrDuplicateApplication
	}
	f.apps[a.ID] = a
	return nil
}

func (f *fakeApplicationRepo) GetByID(_ context.Context, id string) (*application.Application, error) {
	a, ok := f.apps[id]
	if !ok {
		return nil, application.ErrApplicationNotFound
	}
	return a, nil
}

func (f *fakeApplicationRepo) ListByStudent(_ context.Context, studentID string) ([]*application.Application, error) {
	var out []*application.Application
	for _, a := range f.apps {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplicationRepo) ListByScholarship(_ context.Context, scholarshipID string, status application.Status) ([]*application.Application, error) {
	var out []*application.Application
	for _, a := range f.apps {
		if a.ScholarshipID == scholarshipID && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplicationRepo) ListForProfessor(_ context.Context, professorID string) ([]*application.Application, error) {
	var out []*application.Application
	for _, a := range f.apps {
		if a.ProfessorID == professorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplicationRepo) Update(_ context.Context, a *application.Application) error {
	f.apps[a.ID] = a
	return nil
}

// UpdateStatus mirrors the store contract: the transition and the review
// rows it appended persist together, keyed by id so retries do not
// duplicate them.
func (f *fakeApplicationRepo) UpdateStatus(_ context.Context, a *application.Application, _ application.Status) error {
	if f.statusConflict {
		return application.ErrStatusConflict
	}
	f.apps[a.ID] = a

	if n := len(a.Reviews); n > 0 {
		last := a.Reviews[n-1]
		if last.ID == "" {
			f.reviewSeq++
			last.ID = fmt.Sprintf("rev-%d", f.reviewSeq)
			a.Reviews[n-1] = last
		}
		if !f.seenReviewIDs[last.ID] {
			f.seenReviewIDs[last.ID] = true
			f.reviews = append(f.reviews, last)
		}
	}
	if n := len(a.ProfessorReviews); n > 0 {
		last := a.ProfessorReviews[n-1]
		if last.ID != "" && !f.seenReviewIDs[last.ID] {
			f.seenReviewIDs[last.ID] = true
			f.professorReviews = append(f.professorReviews, last)
		}
	}
	return nil
}

func (f *fakeApplicationRepo) HasActiveApplication(_ context.Context, _, _ string) (bool, error) {
	return f.hasActive, nil
}

func (f *fakeApplicationRepo) CountForYear(_ context.Context, _, _ string, _ int) (int, error) {
	return f.yearCount, nil
}

func (f *fakeApplicationRepo) AddReview(_ context.Context, review application.Review) error {
	f.seenReviewIDs[review.ID] = true
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeApplicationRepo) AddProfessorReview(_ context.Context, review application.ProfessorReview) error {
	f.seenReviewIDs[review.ID] = true
	f.professorReviews = append(f.professorReviews, review)
	return nil
}

func (f *fakeApplicationRepo) ListSubmittedBefore(_ context.Context, _ time.Time) ([]*application.Application, error) {
	return nil, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) lastType() shared.EventType {
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1].EventType()
}

type seqIDs struct {
	n int
}

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	students     *fakeStudentRepo
	scholarships *fakeScholarshipRepo
	applications *fakeApplicationRepo
	publisher    *fakePublisher
	ids          *seqIDs
	clock        fixedClock
	gate         *eligibility.Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stud := &student.Student{
		ID:        "stu-1",
		UserID:    "user-1",
		StudentNo: "20230001",
		Name:      "Li Wei",
		Type:      student.TypeUndergraduate,
		Status:    student.StatusEnrolled,
		Record: student.AcademicRecord{
			Degree:              "bachelor",
			EnrollmentType:      "full_time",
			CompletedTerms:      4,
			GPA:                 3.5,
			ClassRankingPercent: 10,
			EnrollmentYear:      2023,
			EnrollmentTerm:      1,
		},
	}

	sch, err := scholarship.NewScholarshipType(scholarship.NewScholarshipParams{
		ID:     "sch-1",
		Code:   "NATIONAL-2026",
		Name:   "National Scholarship",
		Amount: decimal.NewFromInt(8000),
	})
	require.NoError(t, err)
	sch.Activate()
	require.NoError(t, sch.SetWindow(testNow.Add(-24*time.Hour), testNow.Add(24*time.Hour)))
	sch.RequiredFields = []string{"motivation"}

	f := &fixture{
		students:     &fakeStudentRepo{students: map[string]*student.Student{stud.ID: stud}},
		scholarships: &fakeScholarshipRepo{byCode: map[scholarship.Code]*scholarship.ScholarshipType{sch.Code: sch}},
		applications: newFakeApplicationRepo(),
		publisher:    &fakePublisher{},
		ids:          &seqIDs{},
		clock:        fixedClock{now: testNow},
	}
	f.gate = eligibility.NewGate(f.applications, f.scholarships2rules(), f.clock, eligibility.Config{}, nil)
	return f
}

// scholarships2rules adapts the scholarship fake to the gate's RuleProvider.
func (f *fixture) scholarships2rules() eligibility.RuleProvider {
	return ruleProviderFunc(func(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error) {
		return f.scholarships.GetRules(ctx, scholarshipID)
	})
}

type ruleProviderFunc func(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error)

func (fn ruleProviderFunc) RulesFor(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error) {
	return fn(ctx, scholarshipID)
}

func (f *fixture) createHandler() *CreateApplicationHandler {
	return NewCreateApplicationHandler(
		f.students, f.scholarships, f.applications, f.gate, f.ids, f.clock, f.publisher)
}

func studentPrincipal() identity.Principal {
	return identity.Principal{ID: "user-1", Role: identity.RoleStudent, StudentID: "stu-1"}
}

func (f *fixture) createDraft(t *testing.T) *application.Application {
	t.Helper()
	result, err := f.createHandler().Handle(context.Background(), CreateApplicationCommand{
		Principal:       studentPrincipal(),
		ScholarshipCode: "NATIONAL-2026",
		FormData:        map[string]string{"motivation": "I work hard"},
		ProfessorID:     "prof-1",
	})
	require.NoError(t, err)
	return result.Application
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateApplication
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateApplication(t *testing.T) {
	t.Run("happy path creates a draft", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.createHandler().Handle(context.Background(), CreateApplicationCommand{
			Principal:       studentPrincipal(),
			ScholarshipCode: "NATIONAL-2026",
			FormData:        map[string]string{"motivation": "I work hard"},
		})
		require.NoError(t, err)

		app := result.Application
		assert.Equal(t, application.StatusDraft, app.Status)
		assert.Equal(t, "stu-1", app.StudentID)
		assert.Equal(t, "sch-1", app.ScholarshipID)
		assert.Equal(t, 2025, app.AcademicYear, "March 2026 belongs to academic year 2025")
		assert.Equal(t, 3.5, app.Snapshot.GPA, "snapshot frozen from the live record")
		assert.Equal(t, shared.EventApplicationCreated, f.publisher.lastType())
	})

	t.Run("non-student principal is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.createHandler().Handle(context.Background(), CreateApplicationCommand{
			Principal:       identity.Principal{ID: "u9", Role: identity.RoleAdmin},
			ScholarshipCode: "NATIONAL-2026",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, identity.ErrRoleForbidden)
	})

	t.Run("ineligible student gets all reasons", func(t *testing.T) {
		f := newFixture(t)
		sch := f.scholarships.byCode["NATIONAL-2026"]
		sch.MinGPA = 3.8

		_, err := f.createHandler().Handle(context.Background(), CreateApplicationCommand{
			Principal:       studentPrincipal(),
			ScholarshipCode: "NATIONAL-2026",
		})
		require.Error(t, err)

		var eligErr *EligibilityError
		require.ErrorAs(t, err, &eligErr)
		require.NotEmpty(t, eligErr.Reasons)
		assert.ErrorIs(t, err, shared.ErrValidation, "gate rejections classify as validation errors")
	})

	t.Run("duplicate active application blocks at the gate", func(t *testing.T) {
		f := newFixture(t)
		f.applications.hasActive = true

		_, err := f.createHandler().Handle(context.Background(), CreateApplicationCommand{
			Principal:       studentPrincipal(),
			ScholarshipCode: "NATIONAL-2026",
		})
		var eligErr *EligibilityError
		require.ErrorAs(t, err, &eligErr)
	})

	t.Run("unknown scholarship", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.createHandler().Handle(context.Background(), CreateApplicationCommand{
			Principal:       studentPrincipal(),
			ScholarshipCode: "NO-SUCH",
		})
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("unknown sub-type selection", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.createHandler().Handle(context.Background(), CreateApplicationCommand{
			Principal:       studentPrincipal(),
			ScholarshipCode: "NATIONAL-2026",
			SubTypeCodes:    []string{"no-such-variant"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, scholarship.ErrUnknownSubType)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Submit / Update / Cancel
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitApplication(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)

		handler := NewSubmitApplicationHandler(f.applications, f.scholarships, f.clock, f.publisher)
		submitted, err := handler.Handle(context.Background(), SubmitApplicationCommand{
			Principal:     studentPrincipal(),
			ApplicationID: app.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, application.StatusSubmitted, submitted.Status)
		assert.Equal(t, shared.EventApplicationSubmitted, f.publisher.lastType())
	})

	t.Run("missing required field", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)
		require.NoError(t, app.UpdateForm(map[string]string{}))

		handler := NewSubmitApplicationHandler(f.applications, f.scholarships, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), SubmitApplicationCommand{
			Principal:     studentPrincipal(),
			ApplicationID: app.ID,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("another student's application", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)

		handler := NewSubmitApplicationHandler(f.applications, f.scholarships, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), SubmitApplicationCommand{
			Principal:     identity.Principal{ID: "user-2", Role: identity.RoleStudent, StudentID: "stu-2"},
			ApplicationID: app.ID,
		})
		assert.ErrorIs(t, err, application.ErrNotOwned)
	})
}

func TestUpdateApplication(t *testing.T) {
	t.Run("owner updates a draft", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)

		handler := NewUpdateApplicationHandler(f.applications, f.publisher)
		updated, err := handler.Handle(context.Background(), UpdateApplicationCommand{
			Principal:     studentPrincipal(),
			ApplicationID: app.ID,
			FormData:      map[string]string{"motivation": "revised"},
			Documents:     map[string]string{"transcript": "files/t.pdf"},
		})
		require.NoError(t, err)
		assert.Equal(t, "revised", updated.FormData["motivation"])
		assert.Equal(t, "files/t.pdf", updated.Documents["transcript"])
	})

	t.Run("submitted application is frozen", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)
		require.NoError(t, app.Submit(nil, nil, testNow))

		handler := NewUpdateApplicationHandler(f.applications, f.publisher)
		_, err := handler.Handle(context.Background(), UpdateApplicationCommand{
			Principal:     studentPrincipal(),
			ApplicationID: app.ID,
			FormData:      map[string]string{"x": "y"},
		})
		assert.ErrorIs(t, err, application.ErrNotDraft)
	})
}

func TestCancelApplication(t *testing.T) {
	t.Run("owner cancels", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)

		handler := NewCancelApplicationHandler(f.applications, f.clock, f.publisher)
		cancelled, err := handler.Handle(context.Background(), CancelApplicationCommand{
			Principal:     studentPrincipal(),
			ApplicationID: app.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, application.StatusCancelled, cancelled.Status)
		assert.Equal(t, shared.EventApplicationCancelled, f.publisher.lastType())
	})

	t.Run("staff cannot cancel for the student", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)

		handler := NewCancelApplicationHandler(f.applications, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), CancelApplicationCommand{
			Principal:     identity.Principal{ID: "staff-1", Role: identity.RoleAdmin},
			ApplicationID: app.ID,
		})
		assert.ErrorIs(t, err, application.ErrNotOwned)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateStatus
// ──────────────────────────────────────────────────────────────────────────────

func staffPrincipal() identity.Principal {
	return identity.Principal{ID: "staff-1", Role: identity.RoleCollege}
}

func TestUpdateStatus(t *testing.T) {
	submitted := func(t *testing.T, f *fixture) *application.Application {
		app := f.createDraft(t)
		require.NoError(t, app.Submit(nil, nil, testNow))
		return app
	}

	t.Run("staff advances the workflow", func(t *testing.T) {
		f := newFixture(t)
		app := submitted(t, f)

		handler := NewUpdateStatusHandler(f.applications, f.clock, f.publisher)
		result, err := handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:     staffPrincipal(),
			ApplicationID: app.ID,
			NewStatus:     application.StatusUnderReview,
			Comments:      "picked up",
		})
		require.NoError(t, err)
		assert.True(t, result.Changed)
		assert.Equal(t, application.StatusUnderReview, result.Application.Status)
		assert.Equal(t, shared.EventStatusChanged, f.publisher.lastType())
		require.Len(t, f.applications.reviews, 1, "transition persists its review record")
		assert.Equal(t, application.StatusSubmitted, f.applications.reviews[0].FromStatus)
	})

	t.Run("staff decides directly from submitted", func(t *testing.T) {
		f := newFixture(t)
		app := submitted(t, f)

		handler := NewUpdateStatusHandler(f.applications, f.clock, f.publisher)
		result, err := handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:     staffPrincipal(),
			ApplicationID: app.ID,
			NewStatus:     application.StatusApproved,
		})
		require.NoError(t, err)
		assert.Equal(t, application.StatusApproved, result.Application.Status)
		require.NotNil(t, result.Application.ApprovedAt)
	})

	t.Run("concurrent decisions: exactly one commits", func(t *testing.T) {
		f := newFixture(t)
		app := submitted(t, f)
		stale := app.Clone()

		handler := NewUpdateStatusHandler(f.applications, f.clock, f.publisher)
		result, err := handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:     staffPrincipal(),
			ApplicationID: app.ID,
			NewStatus:     application.StatusApproved,
		})
		require.NoError(t, err)
		assert.True(t, result.Changed)

		// The competing reject read the row before the approval committed;
		// the expected-status precondition rejects its write.
		f.applications.apps[app.ID] = stale
		f.applications.statusConflict = true
		_, err = handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:       staffPrincipal(),
			ApplicationID:   app.ID,
			NewStatus:       application.StatusRejected,
			RejectionReason: "duplicate award",
		})
		assert.ErrorIs(t, err, application.ErrStatusConflict)
	})

	t.Run("equal status is a no-op", func(t *testing.T) {
		f := newFixture(t)
		app := submitted(t, f)
		f.publisher.events = nil

		handler := NewUpdateStatusHandler(f.applications, f.clock, f.publisher)
		result, err := handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:     staffPrincipal(),
			ApplicationID: app.ID,
			NewStatus:     application.StatusSubmitted,
		})
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Empty(t, f.publisher.events, "no event for a no-op retry")
	})

	t.Run("student may not drive status", func(t *testing.T) {
		f := newFixture(t)
		app := submitted(t, f)

		handler := NewUpdateStatusHandler(f.applications, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:     studentPrincipal(),
			ApplicationID: app.ID,
			NewStatus:     application.StatusUnderReview,
		})
		assert.ErrorIs(t, err, identity.ErrRoleForbidden)
	})

	t.Run("concurrent transition surfaces as conflict", func(t *testing.T) {
		f := newFixture(t)
		app := submitted(t, f)
		f.applications.statusConflict = true

		handler := NewUpdateStatusHandler(f.applications, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:     staffPrincipal(),
			ApplicationID: app.ID,
			NewStatus:     application.StatusUnderReview,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, application.ErrStatusConflict)
	})

	t.Run("illegal transition", func(t *testing.T) {
		f := newFixture(t)
		app := submitted(t, f)

		handler := NewUpdateStatusHandler(f.applications, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), UpdateStatusCommand{
			Principal:     staffPrincipal(),
			ApplicationID: app.ID,
			NewStatus:     application.StatusDraft,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStateTransition)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Professor review
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitProfessorReview(t *testing.T) {
	underReview := func(t *testing.T, f *fixture) *application.Application {
		app := f.createDraft(t)
		require.NoError(t, app.Submit(nil, nil, testNow))
		app.Status = application.StatusUnderReview
		return app
	}

	professor := identity.Principal{ID: "prof-1", Role: identity.RoleProfessor}

	t.Run("selected awards recommend the application", func(t *testing.T) {
		f := newFixture(t)
		app := underReview(t, f)

		handler := NewSubmitProfessorReviewHandler(f.applications, f.ids, f.clock, f.publisher)
		reviewed, err := handler.Handle(context.Background(), SubmitProfessorReviewCommand{
			Principal:      professor,
			ApplicationID:  app.ID,
			SelectedAwards: []string{"first-prize"},
			Recommendation: "excellent record",
		})
		require.NoError(t, err)
		assert.Equal(t, application.StatusRecommended, reviewed.Status)
		require.Len(t, f.applications.professorReviews, 1)
		assert.NotEmpty(t, f.applications.professorReviews[0].ID)
		assert.Equal(t, shared.EventProfessorReviewed, f.publisher.lastType())
	})

	t.Run("empty selection parks the application", func(t *testing.T) {
		f := newFixture(t)
		app := underReview(t, f)

		handler := NewSubmitProfessorReviewHandler(f.applications, f.ids, f.clock, f.publisher)
		reviewed, err := handler.Handle(context.Background(), SubmitProfessorReviewCommand{
			Principal:     professor,
			ApplicationID: app.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, application.StatusPendingRecommendation, reviewed.Status)
	})

	t.Run("review on a submitted application", func(t *testing.T) {
		f := newFixture(t)
		app := f.createDraft(t)
		require.NoError(t, app.Submit(nil, nil, testNow))

		handler := NewSubmitProfessorReviewHandler(f.applications, f.ids, f.clock, f.publisher)
		reviewed, err := handler.Handle(context.Background(), SubmitProfessorReviewCommand{
			Principal:      professor,
			ApplicationID:  app.ID,
			SelectedAwards: []string{"first-prize"},
		})
		require.NoError(t, err)
		assert.Equal(t, application.StatusRecommended, reviewed.Status)
		require.Len(t, f.applications.professorReviews, 1, "transition and review record persist together")
	})

	t.Run("only professors may review", func(t *testing.T) {
		f := newFixture(t)
		app := underReview(t, f)

		handler := NewSubmitProfessorReviewHandler(f.applications, f.ids, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), SubmitProfessorReviewCommand{
			Principal:     staffPrincipal(),
			ApplicationID: app.ID,
		})
		assert.ErrorIs(t, err, identity.ErrRoleForbidden)
	})

	t.Run("unassigned professor is rejected", func(t *testing.T) {
		f := newFixture(t)
		app := underReview(t, f)

		handler := NewSubmitProfessorReviewHandler(f.applications, f.ids, f.clock, f.publisher)
		_, err := handler.Handle(context.Background(), SubmitProfessorReviewCommand{
			Principal:     identity.Principal{ID: "prof-9", Role: identity.RoleProfessor},
			ApplicationID: app.ID,
		})
		assert.ErrorIs(t, err, application.ErrNotAssignedProfessor)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Academic year derivation
// ──────────────────────────────────────────────────────────────────────────────

func TestCurrentAcademicYear(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), 2026},
		{time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), 2026},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, currentAcademicYear(tt.date), tt.date.String())
	}
}
