// Package eligibility composes scholarship-level gates with the rule
// evaluator into a single eligibility decision. Checks run cheapest first so
// ineligible requests fail before any database round-trip.
package eligibility

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationChecker answers the two questions that must hit the
// authoritative store: the duplicate-active guard and the per-year cap.
type ApplicationChecker interface {
	HasActiveApplication(ctx context.Context, studentID, scholarshipCode string) (bool, error)
	CountForYear(ctx context.Context, studentID, scholarshipCode string, year int) (int, error)
}

// RuleProvider returns the rule set for a scholarship. Implementations may
// serve from a bounded-TTL cache since rules change rarely.
type RuleProvider interface {
	RulesFor(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Config carries the explicit development toggles. Each one is wired from
// configuration at construction; nothing here is read from the environment
// at check time.
type Config struct {
	// AlwaysOpenWindow skips the application-period check. Development only.
	AlwaysOpenWindow bool

	// BypassWhitelist skips the whitelist check. Development only.
	BypassWhitelist bool
}

// ══════════════════════════════════════════════════════════════════════════════
// DECISION
// ══════════════════════════════════════════════════════════════════════════════

// Reason is one blocking reason with its bilingual message pair.
type Reason struct {
	// Code - stable machine code for the check that failed.
	Code string

	// Message / MessageEN - display text.
	Message   string
	MessageEN string
}

// Decision is the gate's verdict. A blocked decision carries every blocking
// reason at once so the UI can explain all of them, not just the first that
// happened to run.
type Decision struct {
	// Eligible - true when nothing blocked.
	Eligible bool

	// Reasons - blocking reasons; empty when eligible.
	Reasons []Reason

	// Warnings - advisory rule failures, surfaced but never blocking.
	Warnings []scholarship.RuleResult

	// Outcome - the full rule evaluation, when it ran. Gate checks that
	// fail before rule evaluation leave it zero.
	Outcome scholarship.Outcome
}

// Blocked is the inverse of Eligible, for readable call sites.
func (d Decision) Blocked() bool {
	return !d.Eligible
}

// Check codes and their message pairs.
const (
	CodeInactive       = "scholarship_inactive"
	CodeWindowClosed   = "window_closed"
	CodeStudentType    = "student_type_not_eligible"
	CodeWhitelist      = "not_in_whitelist"
	CodeGPA            = "gpa_below_minimum"
	CodeRankingPercent = "ranking_above_maximum"
	CodeCompletedTerms = "too_many_completed_terms"
	CodeDuplicate      = "duplicate_active_application"
	CodeYearLimit      = "yearly_application_limit"
	CodeRuleFailed     = "rule_failed"
)

var gateMessages = map[string][2]string{
	CodeInactive:       {"该奖学金当前未开放申请", "This scholarship is not currently active"},
	CodeWindowClosed:   {"不在申请时间范围内", "The application period is not open"},
	CodeStudentType:    {"您的学生类别不符合申请条件", "Your student type is not eligible"},
	CodeWhitelist:      {"您不在该奖学金的申请名单中", "You are not on the applicant list for this scholarship"},
	CodeGPA:            {"绩点未达到最低要求", "GPA is below the required minimum"},
	CodeRankingPercent: {"排名百分比超过允许上限", "Class ranking exceeds the allowed maximum"},
	CodeCompletedTerms: {"已修学期数超过允许上限", "Completed terms exceed the allowed maximum"},
	CodeDuplicate:      {"您已有一份处理中的申请", "You already have an active application for this scholarship"},
	CodeYearLimit:      {"已达到本学年申请次数上限", "You have reached the application limit for this academic year"},
}

func gateReason(code string) Reason {
	pair := gateMessages[code]
	return Reason{Code: code, Message: pair[0], MessageEN: pair[1]}
}

// ══════════════════════════════════════════════════════════════════════════════
// GATE
// ══════════════════════════════════════════════════════════════════════════════

// Gate runs the ordered eligibility checks. Construct it once and share it;
// it holds no per-request state.
type Gate struct {
	apps   ApplicationChecker
	rules  RuleProvider
	clock  shared.Clock
	cfg    Config
	logger *slog.Logger
}

// NewGate creates an eligibility gate.
func NewGate(apps ApplicationChecker, rules RuleProvider, clock shared.Clock, cfg Config, logger *slog.Logger) *Gate {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		apps:   apps,
		rules:  rules,
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}
}

// Request carries everything one eligibility check needs. All inputs are
// passed explicitly; the gate never reads shared mutable state, so checks
// for different applications can run in parallel.
type Request struct {
	Student      *student.Student
	Scholarship  *scholarship.ScholarshipType
	Snapshot     student.AcademicSnapshot
	SubTypeCode  string
	AcademicYear int
}

// Check runs the gates in order, cheapest first, and stops at the first
// scholarship-level failure. Rule evaluation runs last and reports every
// failed hard rule at once. A returned error is fatal (broken configuration
// or storage); it must never be treated as eligible.
func (g *Gate) Check(ctx context.Context, req Request) (Decision, error) {
	sch := req.Scholarship

	// 1. Active status.
	if !sch.IsActive() {
		return blocked(gateReason(CodeInactive)), nil
	}

	// 2. Application window.
	if !g.cfg.AlwaysOpenWindow && !sch.IsOpenAt(g.clock.Now()) {
		return blocked(gateReason(CodeWindowClosed)), nil
	}

	// 3. Student type.
	if !sch.AcceptsStudentType(req.Student.Type) {
		return blocked(gateReason(CodeStudentType)), nil
	}

	// 4. Whitelist.
	if !g.cfg.BypassWhitelist && !sch.IsStudentInWhitelist(req.Student.StudentNo) {
		return blocked(gateReason(CodeWhitelist)), nil
	}

	// 5. Numeric gates, each enforced only when configured.
	if sch.MinGPA > 0 && req.Snapshot.GPA < sch.MinGPA {
		return blocked(gateReason(CodeGPA)), nil
	}
	if sch.MaxRankingPercent > 0 && req.Snapshot.ClassRankingPercent > sch.MaxRankingPercent {
		return blocked(gateReason(CodeRankingPercent)), nil
	}
	if sch.MaxCompletedTerms > 0 && req.Snapshot.CompletedTerms > sch.MaxCompletedTerms {
		return blocked(gateReason(CodeCompletedTerms)), nil
	}

	// 6. Duplicate-active guard and per-year cap. These hit the
	// authoritative store, which is why they run after the cheap checks.
	active, err := g.apps.HasActiveApplication(ctx, req.Student.ID, sch.Code.String())
	if err != nil {
		return Decision{}, shared.WrapError("eligibility", "Check", shared.ErrInternal,
			"duplicate-application lookup failed", err)
	}
	if active {
		return blocked(gateReason(CodeDuplicate)), nil
	}

	if sch.MaxApplicationsPerYear > 0 {
		count, err := g.apps.CountForYear(ctx, req.Student.ID, sch.Code.String(), req.AcademicYear)
		if err != nil {
			return Decision{}, shared.WrapError("eligibility", "Check", shared.ErrInternal,
				"yearly application count lookup failed", err)
		}
		if count >= sch.MaxApplicationsPerYear {
			return blocked(gateReason(CodeYearLimit)), nil
		}
	}

	// 7. Rule evaluation. A malformed rule list is fatal, not a pass.
	rules, err := g.rules.RulesFor(ctx, sch.ID)
	if err != nil {
		return Decision{}, shared.WrapError("eligibility", "Check", shared.ErrInternal,
			"rule lookup failed", err)
	}

	outcome, err := scholarship.Evaluate(req.Snapshot, scholarship.FilterRules(rules, req.SubTypeCode))
	if err != nil {
		g.logger.Error("rule evaluation aborted",
			slog.String("scholarship_code", sch.Code.String()),
			slog.String("error", err.Error()))
		return Decision{}, err
	}

	decision := Decision{
		Eligible: outcome.IsEligible(),
		Warnings: outcome.Warnings,
		Outcome:  outcome,
	}
	for _, failed := range outcome.Errors {
		decision.Reasons = append(decision.Reasons, Reason{
			Code:      fmt.Sprintf("%s:%s", CodeRuleFailed, failed.Tag),
			Message:   failed.Message,
			MessageEN: failed.MessageEN,
		})
	}

	if decision.Blocked() {
		g.logger.Info("application blocked by eligibility rules",
			slog.String("student_id", req.Student.ID),
			slog.String("scholarship_code", sch.Code.String()),
			slog.Int("failed_rules", len(outcome.Errors)))
	}
	return decision, nil
}

func blocked(reasons ...Reason) Decision {
	return Decision{Eligible: false, Reasons: reasons}
}
