package scholarship

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/student"
)

func newTestScholarship(t *testing.T) *ScholarshipType {
	t.Helper()
	st, err := NewScholarshipType(NewScholarshipParams{
		ID:       "sch-1",
		Code:     "NATIONAL-2026",
		Name:     "国家奖学金",
		NameEN:   "National Scholarship",
		Amount:   decimal.NewFromInt(8000),
		Category: CategoryMerit,
	})
	require.NoError(t, err)
	return st
}

func TestNewScholarshipType(t *testing.T) {
	st := newTestScholarship(t)

	assert.Equal(t, Code("NATIONAL-2026"), st.Code)
	assert.Equal(t, "CNY", st.Currency, "currency defaults to CNY")
	assert.Equal(t, StatusInactive, st.Status, "new scholarships start inactive")
	assert.False(t, st.IsActive())
}

func TestNewScholarshipType_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params NewScholarshipParams
		want   error
	}{
		{
			name:   "bad code",
			params: NewScholarshipParams{ID: "s1", Code: "a b", Name: "X", Amount: decimal.NewFromInt(1)},
			want:   ErrInvalidCode,
		},
		{
			name:   "zero amount",
			params: NewScholarshipParams{ID: "s1", Code: "OK-1", Name: "X", Amount: decimal.Zero},
			want:   ErrInvalidAmount,
		},
		{
			name:   "negative amount",
			params: NewScholarshipParams{ID: "s1", Code: "OK-1", Name: "X", Amount: decimal.NewFromInt(-5)},
			want:   ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScholarshipType(tt.params)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestSetWindowAndIsOpenAt(t *testing.T) {
	st := newTestScholarship(t)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	t.Run("no window is never open", func(t *testing.T) {
		assert.False(t, st.IsOpenAt(start))
	})

	t.Run("end must be after start", func(t *testing.T) {
		assert.ErrorIs(t, st.SetWindow(end, start), ErrInvalidWindow)
		assert.ErrorIs(t, st.SetWindow(start, start), ErrInvalidWindow)
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		require.NoError(t, st.SetWindow(start, end))
		assert.True(t, st.IsOpenAt(start))
		assert.True(t, st.IsOpenAt(end))
		assert.True(t, st.IsOpenAt(start.Add(24*time.Hour)))
		assert.False(t, st.IsOpenAt(start.Add(-time.Second)))
		assert.False(t, st.IsOpenAt(end.Add(time.Second)))
	})
}

func TestAcceptsStudentType(t *testing.T) {
	st := newTestScholarship(t)

	t.Run("empty set means unrestricted", func(t *testing.T) {
		assert.True(t, st.AcceptsStudentType(student.TypeUndergraduate))
		assert.True(t, st.AcceptsStudentType(student.TypeGraduate))
	})

	t.Run("restricted set", func(t *testing.T) {
		st.EligibleStudentTypes = []student.Type{student.TypeUndergraduate}
		assert.True(t, st.AcceptsStudentType(student.TypeUndergraduate))
		assert.False(t, st.AcceptsStudentType(student.TypeGraduate))
	})
}

func TestIsStudentInWhitelist(t *testing.T) {
	st := newTestScholarship(t)

	t.Run("disabled whitelist passes everyone", func(t *testing.T) {
		assert.True(t, st.IsStudentInWhitelist("20230001"))
	})

	t.Run("enabled empty whitelist passes nobody", func(t *testing.T) {
		st.WhitelistEnabled = true
		st.Whitelist = nil
		assert.False(t, st.IsStudentInWhitelist("20230001"))
	})

	t.Run("enabled whitelist passes listed students only", func(t *testing.T) {
		st.WhitelistEnabled = true
		st.Whitelist = []student.StudentNo{"20230001", "20230002"}
		assert.True(t, st.IsStudentInWhitelist("20230001"))
		assert.False(t, st.IsStudentInWhitelist("20239999"))
	})
}

func TestValidateSubTypeSelection(t *testing.T) {
	st := newTestScholarship(t)
	st.SubTypes = []SubType{
		{Code: "national", Name: "国家级"},
		{Code: "provincial", Name: "省级"},
	}

	assert.NoError(t, st.ValidateSubTypeSelection(nil))
	assert.NoError(t, st.ValidateSubTypeSelection([]string{"national"}))
	assert.NoError(t, st.ValidateSubTypeSelection([]string{"national", "provincial"}))

	err := st.ValidateSubTypeSelection([]string{"national", "municipal"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSubType)
}

func TestActivateDeactivate(t *testing.T) {
	st := newTestScholarship(t)

	st.Activate()
	assert.True(t, st.IsActive())

	st.Deactivate()
	assert.False(t, st.IsActive())
}

func TestScholarshipClone(t *testing.T) {
	st := newTestScholarship(t)
	st.Whitelist = []student.StudentNo{"20230001"}
	st.SubTypes = []SubType{{Code: "national"}}

	clone := st.Clone()
	clone.Whitelist[0] = "changed"
	clone.SubTypes[0].Code = "changed"

	assert.Equal(t, student.StudentNo("20230001"), st.Whitelist[0])
	assert.Equal(t, "national", st.SubTypes[0].Code)
}
