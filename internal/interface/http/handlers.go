package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/application/command"
	"github.com/scholar-hub/scholarship-hub/internal/application/query"
	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/identity"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.deps.HealthCheckers))
	ready := true
	for name, checker := range s.deps.HealthCheckers {
		if err := checker.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			ready = false
		} else {
			checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP CATALOGUE
// ══════════════════════════════════════════════════════════════════════════════

// scholarshipView is the catalogue representation of a scholarship.
type scholarshipView struct {
	ID                string        `json:"id"`
	Code              string        `json:"code"`
	Name              string        `json:"name"`
	NameEN            string        `json:"name_en,omitempty"`
	Amount            string        `json:"amount"`
	Currency          string        `json:"currency"`
	Category          string        `json:"category,omitempty"`
	SubTypes          []subTypeView `json:"sub_types,omitempty"`
	RequiredFields    []string      `json:"required_fields,omitempty"`
	RequiredDocuments []string      `json:"required_documents,omitempty"`
	ApplicationStart  *time.Time    `json:"application_start,omitempty"`
	ApplicationEnd    *time.Time    `json:"application_end,omitempty"`
	Status            string        `json:"status"`
}

type subTypeView struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	NameEN string `json:"name_en,omitempty"`
}

func toScholarshipView(st *scholarship.ScholarshipType) scholarshipView {
	v := scholarshipView{
		ID:                st.ID,
		Code:              string(st.Code),
		Name:              st.Name,
		NameEN:            st.NameEN,
		Amount:            st.Amount.String(),
		Currency:          st.Currency,
		Category:          string(st.Category),
		RequiredFields:    st.RequiredFields,
		RequiredDocuments: st.RequiredDocuments,
		ApplicationStart:  st.ApplicationStart,
		ApplicationEnd:    st.ApplicationEnd,
		Status:            string(st.Status),
	}
	for _, sub := range st.SubTypes {
		v.SubTypes = append(v.SubTypes, subTypeView{Code: sub.Code, Name: sub.Name, NameEN: sub.NameEN})
	}
	return v
}

func (s *Server) handleListScholarships(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Scholarships.ListActive(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]scholarshipView, 0, len(list))
	for _, st := range list {
		views = append(views, toScholarshipView(st))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetScholarship(w http.ResponseWriter, r *http.Request) {
	code := scholarship.Code(r.PathValue("code"))
	st, err := s.deps.Scholarships.GetByCode(r.Context(), code)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScholarshipView(st))
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// applicationView is the API representation of an application.
type applicationView struct {
	ID              string            `json:"id"`
	StudentID       string            `json:"student_id"`
	StudentNo       string            `json:"student_no"`
	ScholarshipID   string            `json:"scholarship_id"`
	ScholarshipCode string            `json:"scholarship_code"`
	SubTypeCodes    []string          `json:"sub_type_codes,omitempty"`
	AcademicYear    int               `json:"academic_year"`
	Status          string            `json:"status"`
	FormData        map[string]string `json:"form_data,omitempty"`
	Documents       map[string]string `json:"documents,omitempty"`
	ProfessorID     string            `json:"professor_id,omitempty"`
	Comments        string            `json:"comments,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`

	Reviews          []reviewView          `json:"reviews,omitempty"`
	ProfessorReviews []professorReviewView `json:"professor_reviews,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

type reviewView struct {
	ID         string    `json:"id"`
	ReviewerID string    `json:"reviewer_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Comments   string    `json:"comments,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type professorReviewView struct {
	ID             string    `json:"id"`
	ProfessorID    string    `json:"professor_id"`
	SelectedAwards []string  `json:"selected_awards,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toApplicationView(a *application.Application) applicationView {
	v := applicationView{
		ID:              a.ID,
		StudentID:       a.StudentID,
		StudentNo:       string(a.StudentNo),
		ScholarshipID:   a.ScholarshipID,
		ScholarshipCode: a.ScholarshipCode,
		SubTypeCodes:    a.SubTypeCodes,
		AcademicYear:    a.AcademicYear,
		Status:          string(a.Status),
		FormData:        a.FormData,
		Documents:       a.Documents,
		ProfessorID:     a.ProfessorID,
		Comments:        a.Comments,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		SubmittedAt:     a.SubmittedAt,
		ReviewedAt:      a.ReviewedAt,
		ApprovedAt:      a.ApprovedAt,
	}
	for _, rev := range a.Reviews {
		v.Reviews = append(v.Reviews, reviewView{
			ID:         rev.ID,
			ReviewerID: rev.ReviewerID,
			FromStatus: string(rev.FromStatus),
			ToStatus:   string(rev.ToStatus),
			Comments:   rev.Comments,
			CreatedAt:  rev.CreatedAt,
		})
	}
	for _, rev := range a.ProfessorReviews {
		v.ProfessorReviews = append(v.ProfessorReviews, professorReviewView{
			ID:             rev.ID,
			ProfessorID:    rev.ProfessorID,
			SelectedAwards: rev.SelectedAwards,
			Recommendation: rev.Recommendation,
			CreatedAt:      rev.CreatedAt,
		})
	}
	return v
}

func toApplicationViews(apps []*application.Application) []applicationView {
	views := make([]applicationView, 0, len(apps))
	for _, a := range apps {
		views = append(views, toApplicationView(a))
	}
	return views
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type createApplicationRequest struct {
	ScholarshipCode string            `json:"scholarship_code"`
	SubTypeCodes    []string          `json:"sub_type_codes,omitempty"`
	FormData        map[string]string `json:"form_data,omitempty"`
	ProfessorID     string            `json:"professor_id,omitempty"`
	AcademicYear    int               `json:"academic_year,omitempty"`
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	var req createApplicationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreateApplication.Handle(r.Context(), command.CreateApplicationCommand{
		Principal:       principal,
		ScholarshipCode: req.ScholarshipCode,
		SubTypeCodes:    req.SubTypeCodes,
		FormData:        req.FormData,
		ProfessorID:     req.ProfessorID,
		AcademicYear:    req.AcademicYear,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"application": toApplicationView(result.Application),
		"warnings":    toRuleWarnings(result.Warnings),
	})
}

// ruleWarning is the advisory rule failure surfaced to the student.
type ruleWarning struct {
	Tag       string `json:"tag,omitempty"`
	Message   string `json:"message"`
	MessageEN string `json:"message_en,omitempty"`
}

func toRuleWarnings(results []scholarship.RuleResult) []ruleWarning {
	warnings := make([]ruleWarning, 0, len(results))
	for _, res := range results {
		warnings = append(warnings, ruleWarning{
			Tag:       res.Tag,
			Message:   res.Message,
			MessageEN: res.MessageEN,
		})
	}
	return warnings
}

func (s *Server) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	apps, err := s.deps.ListMyApplications.Handle(r.Context(), principal)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationViews(apps))
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	app, err := s.deps.GetApplication.Handle(r.Context(), query.GetApplicationQuery{
		Principal:     principal,
		ApplicationID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationView(app))
}

type updateApplicationRequest struct {
	FormData  map[string]string `json:"form_data,omitempty"`
	Documents map[string]string `json:"documents,omitempty"`
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	var req updateApplicationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	app, err := s.deps.UpdateApplication.Handle(r.Context(), command.UpdateApplicationCommand{
		Principal:     principal,
		ApplicationID: r.PathValue("id"),
		FormData:      req.FormData,
		Documents:     req.Documents,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationView(app))
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	app, err := s.deps.SubmitApplication.Handle(r.Context(), command.SubmitApplicationCommand{
		Principal:     principal,
		ApplicationID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationView(app))
}

func (s *Server) handleCancelApplication(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	app, err := s.deps.CancelApplication.Handle(r.Context(), command.CancelApplicationCommand{
		Principal:     principal,
		ApplicationID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationView(app))
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListReviewQueue(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	apps, err := s.deps.ListReviewQueue.Handle(r.Context(), query.ListReviewQueueQuery{
		Principal:     principal,
		ScholarshipID: r.URL.Query().Get("scholarship_id"),
		Status:        application.Status(r.URL.Query().Get("status")),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationViews(apps))
}

type updateStatusRequest struct {
	Status          string `json:"status"`
	Comments        string `json:"comments,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	var req updateStatusRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UpdateStatus.Handle(r.Context(), command.UpdateStatusCommand{
		Principal:       principal,
		ApplicationID:   r.PathValue("id"),
		NewStatus:       application.Status(req.Status),
		Comments:        req.Comments,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"application": toApplicationView(result.Application),
		"changed":     result.Changed,
	})
}

type professorReviewRequest struct {
	SelectedAwards []string `json:"selected_awards,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

func (s *Server) handleProfessorReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "Authentication required")
		return
	}

	var req professorReviewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	app, err := s.deps.SubmitProfessorReview.Handle(r.Context(), command.SubmitProfessorReviewCommand{
		Principal:      principal,
		ApplicationID:  r.PathValue("id"),
		SelectedAwards: req.SelectedAwards,
		Recommendation: req.Recommendation,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationView(app))
}

// ══════════════════════════════════════════════════════════════════════════════
// DEVELOPMENT TOKEN ENDPOINT
// ══════════════════════════════════════════════════════════════════════════════

type devTokenRequest struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	StudentID string `json:"student_id,omitempty"`
}

// handleDevToken issues a signed token for local testing. The route is only
// registered when EnableDevTokens is set.
func (s *Server) handleDevToken(w http.ResponseWriter, r *http.Request) {
	var req devTokenRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	token, err := s.auth.Issue(identity.Principal{
		ID:        req.UserID,
		Role:      identity.Role(req.Role),
		StudentID: req.StudentID,
	}, time.Now())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody parses the JSON request body into dest. On failure it writes the
// error response and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON for this endpoint")
		return false
	}
	return true
}

// eligibilityReasonView mirrors eligibility.Reason for the API.
type eligibilityReasonView struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	MessageEN string `json:"message_en,omitempty"`
}

// writeDomainError maps domain errors to HTTP responses. Eligibility
// rejections carry the full bilingual reason list in the error details.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var eligErr *command.EligibilityError
	if errors.As(err, &eligErr) {
		details := make([]eligibilityReasonView, 0, len(eligErr.Reasons))
		for _, reason := range eligErr.Reasons {
			details = append(details, eligibilityReasonView{
				Code:      reason.Code,
				Message:   reason.Message,
				MessageEN: reason.MessageEN,
			})
		}
		writeJSONErrorDetails(w, http.StatusUnprocessableEntity, "not_eligible",
			"Student does not meet the scholarship requirements", details)
		return
	}

	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
			slog.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, status, code, "An unexpected error occurred")
		return
	}
	writeJSONError(w, status, code, err.Error())
}

// classifyError maps a domain error to an HTTP status and machine code.
func classifyError(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, application.ErrDuplicateApplication):
		return http.StatusConflict, "duplicate_application"
	case errors.Is(err, application.ErrStatusConflict), shared.IsConflict(err):
		return http.StatusConflict, "conflict"
	case shared.IsAuthorization(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsStateError(err):
		return http.StatusConflict, "invalid_state"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}
