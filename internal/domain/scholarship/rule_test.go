package scholarship

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

func sampleSnapshot() student.AcademicSnapshot {
	snap, err := student.BuildSnapshot(student.AcademicRecord{
		Degree:              "bachelor",
		EnrollmentType:      "full_time",
		Nationality:         "domestic",
		IdentityCode:        "regular",
		SchoolIdentityCode:  "A1",
		CompletedTerms:      4,
		GPA:                 3.5,
		ClassRankingPercent: 12.5,
		DeptRankingPercent:  20,
		EnrollmentYear:      2023,
		EnrollmentTerm:      1,
	}, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return snap
}

func hardRule(id, field string, op Operator, expected string) Rule {
	return Rule{
		ID:             id,
		ScholarshipID:  "sch-1",
		Tag:            "tag-" + id,
		ConditionField: field,
		Operator:       op,
		ExpectedValue:  expected,
		Message:        "msg " + id,
		MessageEN:      "msg en " + id,
		IsHardRule:     true,
		Active:         true,
	}
}

func TestEvaluate_Operators(t *testing.T) {
	snap := sampleSnapshot()

	tests := []struct {
		name     string
		field    string
		op       Operator
		expected string
		passed   bool
	}{
		{"equals pass", "degree", OperatorEquals, "bachelor", true},
		{"equals fail", "degree", OperatorEquals, "master", false},
		{"not equals pass", "nationality", OperatorNotEquals, "international", true},
		{"not equals fail", "nationality", OperatorNotEquals, "domestic", false},
		{"gte pass", "gpa", OperatorGTE, "3.38", true},
		{"gte boundary", "gpa", OperatorGTE, "3.5", true},
		{"gte fail", "gpa", OperatorGTE, "3.6", false},
		{"lte pass", "ranking.class_percent", OperatorLTE, "30", true},
		{"lte fail", "ranking.class_percent", OperatorLTE, "10", false},
		{"in pass", "degree", OperatorIn, "bachelor, master", true},
		{"in fail", "degree", OperatorIn, "master, phd", false},
		{"not in pass", "identity.code", OperatorNotIn, "exchange, visiting", true},
		{"not in fail", "identity.code", OperatorNotIn, "regular, exchange", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Evaluate(snap, []Rule{hardRule("r1", tt.field, tt.op, tt.expected)})
			require.NoError(t, err)
			require.Equal(t, 1, out.Total())
			if tt.passed {
				assert.Len(t, out.Passed, 1)
				assert.True(t, out.IsEligible())
			} else {
				assert.Len(t, out.Errors, 1)
				assert.False(t, out.IsEligible())
			}
		})
	}
}

func TestEvaluate_NumericParseFailsClosed(t *testing.T) {
	snap := sampleSnapshot()

	// Non-numeric expected value against a numeric operator must fail the
	// rule, not pass it.
	out, err := Evaluate(snap, []Rule{hardRule("r1", "gpa", OperatorGTE, "three")})
	require.NoError(t, err)
	assert.Len(t, out.Errors, 1)
	assert.False(t, out.IsEligible())

	// Non-numeric actual value likewise.
	out, err = Evaluate(snap, []Rule{hardRule("r2", "degree", OperatorLTE, "3")})
	require.NoError(t, err)
	assert.Len(t, out.Errors, 1)
}

func TestEvaluate_MissingFieldFailsRule(t *testing.T) {
	snap := sampleSnapshot()

	out, err := Evaluate(snap, []Rule{hardRule("r1", "no.such.field", OperatorEquals, "x")})
	require.NoError(t, err)
	require.Len(t, out.Errors, 1)
	assert.Empty(t, out.Errors[0].Actual)
	assert.False(t, out.IsEligible())
}

func TestEvaluate_Partition(t *testing.T) {
	snap := sampleSnapshot()

	warning := hardRule("w1", "gpa", OperatorGTE, "3.8")
	warning.IsHardRule = false
	warning.IsWarning = true

	info := hardRule("i1", "degree", OperatorEquals, "master")
	info.IsHardRule = false

	rules := []Rule{
		hardRule("h1", "gpa", OperatorGTE, "3.0"),           // passes
		hardRule("h2", "completed_terms", OperatorLTE, "2"), // fails hard
		warning,                                             // fails advisory
		info,                                                // fails informational, still counts as passed
	}

	out, err := Evaluate(snap, rules)
	require.NoError(t, err)

	assert.Equal(t, len(rules), out.Total())
	assert.Len(t, out.Passed, 2)
	assert.Len(t, out.Warnings, 1)
	assert.Len(t, out.Errors, 1)
	assert.False(t, out.IsEligible())
	assert.Equal(t, []string{"msg h2"}, out.BlockingMessages())
}

func TestEvaluate_MalformedRuleIsFatal(t *testing.T) {
	snap := sampleSnapshot()

	t.Run("unknown operator", func(t *testing.T) {
		bad := hardRule("r1", "gpa", Operator(">"), "3")
		_, err := Evaluate(snap, []Rule{bad})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownOperator)
	})

	t.Run("missing condition field", func(t *testing.T) {
		bad := hardRule("r1", "  ", OperatorEquals, "x")
		_, err := Evaluate(snap, []Rule{bad})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRule)
	})

	t.Run("hard and warning at once", func(t *testing.T) {
		bad := hardRule("r1", "gpa", OperatorGTE, "3")
		bad.IsWarning = true
		_, err := Evaluate(snap, []Rule{bad})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAmbiguousRuleKind)
	})

	t.Run("missing id", func(t *testing.T) {
		bad := hardRule("", "gpa", OperatorGTE, "3")
		_, err := Evaluate(snap, []Rule{bad})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRule))
	})
}

func TestEvaluate_ResultOrdering(t *testing.T) {
	snap := sampleSnapshot()

	r1 := hardRule("b", "degree", OperatorEquals, "master")
	r1.Priority = 1
	r2 := hardRule("a", "degree", OperatorEquals, "phd")
	r2.Priority = 1
	r3 := hardRule("c", "degree", OperatorEquals, "phd")
	r3.Priority = 0

	out, err := Evaluate(snap, []Rule{r1, r2, r3})
	require.NoError(t, err)
	require.Len(t, out.Errors, 3)

	// Priority ascending, rule ID as tiebreak.
	assert.Equal(t, "c", out.Errors[0].RuleID)
	assert.Equal(t, "a", out.Errors[1].RuleID)
	assert.Equal(t, "b", out.Errors[2].RuleID)
}

func TestFilterRules(t *testing.T) {
	inactive := hardRule("r1", "gpa", OperatorGTE, "3")
	inactive.Active = false

	scoped := hardRule("r2", "gpa", OperatorGTE, "3")
	scoped.SubTypeCode = "national"

	global := hardRule("r3", "gpa", OperatorGTE, "3")

	rules := []Rule{inactive, scoped, global}

	t.Run("no sub-type selected", func(t *testing.T) {
		filtered := FilterRules(rules, "")
		require.Len(t, filtered, 1)
		assert.Equal(t, "r3", filtered[0].ID)
	})

	t.Run("matching sub-type", func(t *testing.T) {
		filtered := FilterRules(rules, "national")
		require.Len(t, filtered, 2)
	})

	t.Run("other sub-type", func(t *testing.T) {
		filtered := FilterRules(rules, "provincial")
		require.Len(t, filtered, 1)
		assert.Equal(t, "r3", filtered[0].ID)
	})
}
