package submission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/tests"
)

func quiz() assessment.Assessment {
	return assessment.Assessment{
		ID: "a1",
		Questions: []assessment.Question{
			testutil.MCQuestion("q1", 2, "Kinshasa", "Kinshasa", "Goma"),
			testutil.MCQuestion("q2", 1, "4", "3", "4"),
			testutil.TextQuestion("q3", 5),
		},
	}
}

func TestIsComplete(t *testing.T) {
	a := quiz()
	tests := []struct {
		name    string
		answers []submission.Answer
		want    bool
	}{
		{name: "none", want: false},
		{name: "partial", answers: []submission.Answer{{QuestionID: "q1", Answer: "Goma"}, {QuestionID: "q2", Answer: "4"}}},
		{
			name: "blank answer",
			answers: []submission.Answer{
				{QuestionID: "q1", Answer: "Goma"}, {QuestionID: "q2", Answer: "4"}, {QuestionID: "q3", Answer: "  "},
			},
		},
		{
			name: "all answered",
			answers: []submission.Answer{
				{QuestionID: "q1", Answer: "Goma"}, {QuestionID: "q2", Answer: "4"}, {QuestionID: "q3", Answer: "big city"},
			},
			want: true,
		},
		{
			name: "duplicated answer counts",
			answers: []submission.Answer{
				{QuestionID: "q1", Answer: "Goma"}, {QuestionID: "q1", Answer: "Kinshasa"}, {QuestionID: "q2", Answer: "4"},
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, submission.IsComplete(a, tt.answers))
		})
	}
}

func TestAutoGrade(t *testing.T) {
	a := quiz()
	tests := []struct {
		name        string
		answers     []submission.Answer
		wantMarks   int
		wantCorrect int
	}{
		{
			name: "all correct",
			answers: []submission.Answer{
				{QuestionID: "q1", Answer: "Kinshasa"}, {QuestionID: "q2", Answer: "4"}, {QuestionID: "q3", Answer: "anything"},
			},
			wantMarks:   3,
			wantCorrect: 2,
		},
		{
			name: "all wrong",
			answers: []submission.Answer{
				{QuestionID: "q1", Answer: "Goma"}, {QuestionID: "q2", Answer: "3"}, {QuestionID: "q3", Answer: "anything"},
			},
		},
		{
			name:        "case sensitive",
			answers:     []submission.Answer{{QuestionID: "q1", Answer: "kinshasa"}, {QuestionID: "q2", Answer: "4"}},
			wantMarks:   1,
			wantCorrect: 1,
		},
		{
			name:        "first answer of a question wins",
			answers:     []submission.Answer{{QuestionID: "q1", Answer: "Kinshasa"}, {QuestionID: "q1", Answer: "Goma"}},
			wantMarks:   2,
			wantCorrect: 1,
		},
		{name: "no answers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMarks, submission.AutoGrade(a, tt.answers))
			assert.Equal(t, tt.wantCorrect, submission.CorrectCount(a, tt.answers))
		})
	}
}

func TestSubmission_Status(t *testing.T) {
	var none *submission.Submission
	assert.Equal(t, submission.StatusNotStarted, none.Status())
	assert.Equal(t, submission.StatusDraft, (&submission.Submission{}).Status())
	assert.Equal(t, submission.StatusCompleted, (&submission.Submission{IsCompleted: true}).Status())
	assert.Equal(t, submission.StatusGraded, (&submission.Submission{IsCompleted: true, MarksAwarded: testutil.IntPtr(0)}).Status())
}

func TestSubmission_Score(t *testing.T) {
	_, ok := submission.Submission{}.Score()
	assert.False(t, ok)

	score, ok := submission.Submission{AutoGradedMarks: testutil.IntPtr(3)}.Score()
	assert.True(t, ok)
	assert.Equal(t, 3, score)

	score, ok = submission.Submission{AutoGradedMarks: testutil.IntPtr(3), MarksAwarded: testutil.IntPtr(7)}.Score()
	assert.True(t, ok)
	assert.Equal(t, 7, score)
}

func TestCleanAnswers(t *testing.T) {
	got := submission.CleanAnswers([]submission.Answer{
		{QuestionID: " q1", Answer: " Kinshasa "},
		{QuestionID: "q2", Answer: "\t"},
		{QuestionID: "q3", Answer: "a city\n"},
	})
	assert.Equal(t, []submission.Answer{{QuestionID: "q1", Answer: "Kinshasa"}, {QuestionID: "q3", Answer: "a city"}}, got)
	assert.Equal(t, 2, submission.AutoGrade(quiz(), got))
}
