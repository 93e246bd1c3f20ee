package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() AcademicRecord {
	return AcademicRecord{
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
	}
}

func TestBuildSnapshot(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CST", 8*3600))

	snap, err := BuildSnapshot(testRecord(), at)
	require.NoError(t, err)

	assert.Equal(t, "bachelor", snap.Degree)
	assert.Equal(t, 3.5, snap.GPA)
	assert.Equal(t, at.UTC(), snap.TakenAt, "snapshot time is normalized to UTC")
}

func TestBuildSnapshot_IncompleteRecord(t *testing.T) {
	at := time.Now()

	t.Run("missing degree", func(t *testing.T) {
		record := testRecord()
		record.Degree = ""
		_, err := BuildSnapshot(record, at)
		assert.ErrorIs(t, err, ErrIncompleteAcademicRecord)
	})

	t.Run("missing enrollment year", func(t *testing.T) {
		record := testRecord()
		record.EnrollmentYear = 0
		_, err := BuildSnapshot(record, at)
		assert.ErrorIs(t, err, ErrIncompleteAcademicRecord)
	})
}

func TestSnapshotField(t *testing.T) {
	snap, err := BuildSnapshot(testRecord(), time.Now())
	require.NoError(t, err)

	tests := []struct {
		path string
		want string
	}{
		{"degree", "bachelor"},
		{"enrollment.type", "full_time"},
		{"enrollment_type", "full_time"},
		{"nationality", "domestic"},
		{"identity.code", "regular"},
		{"identity.school_code", "A1"},
		{"completed_terms", "4"},
		{"gpa", "3.5"},
		{"ranking.class_percent", "12.5"},
		{"class_ranking_percent", "12.5"},
		{"ranking.department_percent", "20"},
		{"enrollment.year", "2023"},
		{"enrollment.term", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := snap.Field(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown path", func(t *testing.T) {
		got, ok := snap.Field("no.such.path")
		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

func TestSnapshotField_FloatFormatting(t *testing.T) {
	record := testRecord()
	record.GPA = 3.0

	snap, err := BuildSnapshot(record, time.Now())
	require.NoError(t, err)

	// No trailing zeros so stringified comparisons stay stable.
	got, ok := snap.Field("gpa")
	require.True(t, ok)
	assert.Equal(t, "3", got)
}
