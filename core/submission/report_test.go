package submission_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
	"github.com/trezcool/tathmini/tests"
)

func TestBuildReport(t *testing.T) {
	a := quiz()
	a.Title = "Geo"
	at := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

	students := []user.User{
		{ID: "s1", Name: "Ann", Email: "ann@test.cd"},
		{ID: "s2", Name: "Bob", Email: "bob@test.cd"},
		{ID: "s3", Name: "Cid", Email: "cid@test.cd"},
	}
	subs := []submission.Submission{
		{
			ID: "sub1", StudentID: "s1", SubmittedAt: at, IsCompleted: true,
			Answers:         allCorrect(),
			AutoGradedMarks: testutil.IntPtr(3),
			MarksAwarded:    testutil.IntPtr(7),
		},
		{
			ID: "sub2", StudentID: "s2", SubmittedAt: at,
			Answers: []submission.Answer{{QuestionID: "q2", Answer: "3"}},
		},
	}

	rep := submission.BuildReport(a, students, subs)
	assert.Equal(t, "Geo", rep.Title)
	assert.Equal(t, "Geo - Results.xlsx", rep.FileName)
	assert.Equal(t, 3, rep.Students)
	assert.Equal(t, 1, rep.Completed)
	assert.Equal(t, []string{
		"Student Name", "Email", "Status", "Submission Date", "Marks", "Auto-calculated Score",
		"Qq1", "Qq2", "Qq3", "Qq1_correct", "Qq2_correct",
	}, rep.Header)

	require.Len(t, rep.Rows, 3)
	assert.Equal(t, []string{
		"Ann", "ann@test.cd", "Completed", "2024-05-10 14:30", "7/8", "2 correct answers",
		"Kinshasa", "4", "a big city", "Kinshasa", "4",
	}, rep.Rows[0])
	assert.Equal(t, []string{
		"Bob", "bob@test.cd", "Incomplete", "2024-05-10 14:30", "-", "-",
		"", "3", "", "Kinshasa", "4",
	}, rep.Rows[1])
	assert.Equal(t, []string{
		"Cid", "cid@test.cd", "Not Started", "-", "-", "-",
		"", "", "", "", "",
	}, rep.Rows[2])
	for _, row := range rep.Rows {
		assert.Len(t, row, len(rep.Header))
	}
}

func TestBuildReport_noStudents(t *testing.T) {
	rep := submission.BuildReport(quiz(), nil, nil)
	assert.Empty(t, rep.Rows)
	assert.NotNil(t, rep.Rows)
	assert.Zero(t, rep.Completed)
}
