package scholarship

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY RULES
// Rules are declarative records (field / operator / value) interpreted by a
// small fixed evaluator, not a general expression language. Admins edit them
// at runtime; the evaluator stays auditable and side-effect free.
// ══════════════════════════════════════════════════════════════════════════════

// Operator is a rule comparison operator.
type Operator string

const (
	// OperatorEquals - string equality against the stringified field.
	OperatorEquals Operator = "=="
	// OperatorNotEquals - string inequality.
	OperatorNotEquals Operator = "!="
	// OperatorGTE - numeric greater-or-equal.
	OperatorGTE Operator = ">="
	// OperatorLTE - numeric less-or-equal.
	OperatorLTE Operator = "<="
	// OperatorIn - membership in a comma-separated value set.
	OperatorIn Operator = "in"
	// OperatorNotIn - absence from a comma-separated value set.
	OperatorNotIn Operator = "not_in"
)

// IsValid checks that the operator is a known value.
func (o Operator) IsValid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorGTE, OperatorLTE, OperatorIn, OperatorNotIn:
		return true
	default:
		return false
	}
}

// Rule errors. Malformed rules are configuration faults, treated as fatal by
// the eligibility check rather than defaulting to "eligible".
var (
	// ErrMalformedRule - a rule is structurally invalid.
	ErrMalformedRule = shared.NewDomainError("scholarship", "Evaluate", shared.ErrInternal, "malformed eligibility rule")

	// ErrUnknownOperator - a rule uses an operator the evaluator does not know.
	ErrUnknownOperator = shared.NewDomainError("scholarship", "Evaluate", shared.ErrInternal, "unknown rule operator")

	// ErrAmbiguousRuleKind - a rule is marked both hard and warning.
	ErrAmbiguousRuleKind = shared.NewDomainError("scholarship", "Evaluate", shared.ErrInternal, "rule cannot be both hard and warning")
)

// Rule is a single declarative eligibility condition owned by a scholarship.
type Rule struct {
	// ID - unique rule identifier.
	ID string

	// ScholarshipID - owning scholarship.
	ScholarshipID string

	// SubTypeCode - optional sub-type scope. Empty means the rule applies to
	// every sub-type.
	SubTypeCode string

	// Tag - short machine tag surfaced to the UI (e.g., "gpa", "ranking").
	Tag string

	// ConditionField - dotted path resolved against the academic snapshot.
	ConditionField string

	// Operator - comparison operator.
	Operator Operator

	// ExpectedValue - comparison operand; comma-separated for set operators.
	ExpectedValue string

	// Message / MessageEN - stored template text shown verbatim on failure.
	Message   string
	MessageEN string

	// IsHardRule - failure blocks eligibility.
	IsHardRule bool

	// IsWarning - failure is advisory only. Mutually exclusive with
	// IsHardRule; a rule with neither flag is informational.
	IsWarning bool

	// Priority - display order, ascending.
	Priority int

	// Active - inactive rules are skipped entirely.
	Active bool
}

// Validate checks the rule's structural integrity.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRule)
	}
	if strings.TrimSpace(r.ConditionField) == "" {
		return fmt.Errorf("%w: rule %s has no condition field", ErrMalformedRule, r.ID)
	}
	if !r.Operator.IsValid() {
		return fmt.Errorf("%w: rule %s uses %q", ErrUnknownOperator, r.ID, r.Operator)
	}
	if r.IsHardRule && r.IsWarning {
		return fmt.Errorf("%w: rule %s", ErrAmbiguousRuleKind, r.ID)
	}
	return nil
}

// AppliesTo returns true if the rule is active and in scope for the given
// sub-type selection. A rule without a sub-type scope applies everywhere.
func (r Rule) AppliesTo(subTypeCode string) bool {
	if !r.Active {
		return false
	}
	return r.SubTypeCode == "" || r.SubTypeCode == subTypeCode
}

// FilterRules returns the active rules in scope for subTypeCode, sorted by
// priority ascending with rule id as tiebreak.
func FilterRules(rules []Rule, subTypeCode string) []Rule {
	filtered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.AppliesTo(subTypeCode) {
			filtered = append(filtered, r)
		}
	}
	sortRules(filtered)
	return filtered
}

func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// RuleResult is the outcome of evaluating one rule against one snapshot.
type RuleResult struct {
	// RuleID - the evaluated rule.
	RuleID string

	// Tag - the rule's machine tag for UI highlighting.
	Tag string

	// Field - the resolved condition field path.
	Field string

	// Operator / Expected - the comparison that was applied.
	Operator Operator
	Expected string

	// Actual - the snapshot value the rule saw; empty when the field was
	// missing.
	Actual string

	// Priority - copied from the rule for display ordering.
	Priority int

	// Message / MessageEN - the rule's stored message pair.
	Message   string
	MessageEN string

	// Passed - whether the comparison held.
	Passed bool
}

// Outcome partitions every evaluated rule into exactly one bucket.
// len(Passed)+len(Warnings)+len(Errors) always equals the number of rules
// evaluated.
type Outcome struct {
	// Passed - rules that held, plus informational rules that failed.
	Passed []RuleResult

	// Warnings - advisory rules that failed. Surfaced, never blocking.
	Warnings []RuleResult

	// Errors - hard rules that failed. Any entry here blocks eligibility.
	Errors []RuleResult
}

// IsEligible returns true if no hard rule failed.
func (o Outcome) IsEligible() bool {
	return len(o.Errors) == 0
}

// Total returns the number of rules evaluated.
func (o Outcome) Total() int {
	return len(o.Passed) + len(o.Warnings) + len(o.Errors)
}

// BlockingMessages returns the message pairs of every failed hard rule so
// callers can report all blocking reasons at once.
func (o Outcome) BlockingMessages() []string {
	msgs := make([]string, 0, len(o.Errors))
	for _, r := range o.Errors {
		msgs = append(msgs, r.Message)
	}
	return msgs
}

// Evaluate runs every rule against the snapshot and partitions the results.
// Business-level mismatches never produce an error; only a structurally
// malformed rule does, and the caller must treat that as fatal rather than
// defaulting to eligible.
func Evaluate(snapshot student.AcademicSnapshot, rules []Rule) (Outcome, error) {
	var out Outcome

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return Outcome{}, err
		}

		actual, found := snapshot.Field(rule.ConditionField)

		// A missing field fails the rule. It never aborts evaluation.
		passed := found && compare(rule.Operator, actual, rule.ExpectedValue)

		result := RuleResult{
			RuleID:    rule.ID,
			Tag:       rule.Tag,
			Field:     rule.ConditionField,
			Operator:  rule.Operator,
			Expected:  rule.ExpectedValue,
			Actual:    actual,
			Priority:  rule.Priority,
			Message:   rule.Message,
			MessageEN: rule.MessageEN,
			Passed:    passed,
		}

		switch {
		case passed:
			out.Passed = append(out.Passed, result)
		case rule.IsHardRule:
			out.Errors = append(out.Errors, result)
		case rule.IsWarning:
			out.Warnings = append(out.Warnings, result)
		default:
			// Informational rule: its failure blocks nothing.
			out.Passed = append(out.Passed, result)
		}
	}

	sortResults(out.Passed)
	sortResults(out.Warnings)
	sortResults(out.Errors)

	return out, nil
}

func sortResults(results []RuleResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Priority != results[j].Priority {
			return results[i].Priority < results[j].Priority
		}
		return results[i].RuleID < results[j].RuleID
	})
}

// compare applies a single operator. Numeric operators are fail-closed: if
// either side does not parse, the rule fails instead of silently passing
// malformed configuration.
func compare(op Operator, actual, expected string) bool {
	switch op {
	case OperatorEquals:
		return actual == expected
	case OperatorNotEquals:
		return actual != expected
	case OperatorGTE:
		a, e, ok := parsePair(actual, expected)
		return ok && a >= e
	case OperatorLTE:
		a, e, ok := parsePair(actual, expected)
		return ok && a <= e
	case OperatorIn:
		return inSet(actual, expected)
	case OperatorNotIn:
		return !inSet(actual, expected)
	default:
		return false
	}
}

func parsePair(actual, expected string) (float64, float64, bool) {
	a, errA := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	e, errE := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	return a, e, errA == nil && errE == nil
}

func inSet(actual, expected string) bool {
	for _, candidate := range strings.Split(expected, ",") {
		if strings.TrimSpace(candidate) == actual {
			return true
		}
	}
	return false
}
