package assessment_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/user"
	"github.com/trezcool/tathmini/tests"
)

type fixture struct {
	repos   testutil.Repos
	svc     assessment.Service
	admin   user.User
	teacher user.User
	other   user.User
	student user.User
}

func setup(t *testing.T) fixture {
	repos := testutil.NewRepos()
	f := fixture{
		repos:   repos,
		svc:     assessment.NewService(repos.Assessments, repos.Users, testutil.NewValidate()),
		admin:   testutil.CreateUser(t, repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, ""),
		teacher: testutil.CreateUser(t, repos.Users, "Teacher", "teacher@test.cd", "", user.RoleTeacher, ""),
		other:   testutil.CreateUser(t, repos.Users, "Other", "other@test.cd", "", user.RoleTeacher, ""),
	}
	f.student = testutil.CreateUser(t, repos.Users, "Student", "student@test.cd", "", user.RoleStudent, f.teacher.ID)
	return f
}

func validAssessment() assessment.NewAssessment {
	return assessment.NewAssessment{
		Title:       "  Quiz 1 ",
		Description: "Capitals",
		DueDate:     core.Now().Add(24 * time.Hour),
		Questions: []assessment.NewQuestion{
			{Text: "Capital of DRC?", Type: assessment.TypeMultipleChoice, Options: []string{"Kinshasa", " Lubumbashi ", ""}, CorrectAnswer: "Kinshasa", Marks: 2},
			{Text: "Describe Kinshasa", Type: assessment.TypeText, Marks: 3},
		},
	}
}

func Test_service_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("permission denied", func(t *testing.T) {
		for _, actor := range []user.User{f.admin, f.student} {
			_, err := f.svc.Create(ctx, actor, validAssessment())
			assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
		}
	})

	t.Run("valid", func(t *testing.T) {
		a, err := f.svc.Create(ctx, f.teacher, validAssessment())
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, "Quiz 1", a.Title)
		assert.Equal(t, f.teacher.ID, a.CreatedBy)
		require.Len(t, a.Questions, 2)
		assert.Equal(t, []string{"Kinshasa", "Lubumbashi"}, a.Questions[0].Options)
		assert.NotEqual(t, a.Questions[0].ID, a.Questions[1].ID)
		assert.Equal(t, 5, a.TotalMarks())

		got, err := f.svc.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.Questions, got.Questions)
	})

	tests := []struct {
		name      string
		mutate    func(na *assessment.NewAssessment)
		wantField string
		wantTag   string
	}{
		{name: "blank title", mutate: func(na *assessment.NewAssessment) { na.Title = "  " }, wantField: "title", wantTag: "required"},
		{name: "past due date", mutate: func(na *assessment.NewAssessment) { na.DueDate = core.Now().Add(-time.Minute) }, wantField: "due_date", wantTag: "futuredate"},
		{name: "no questions", mutate: func(na *assessment.NewAssessment) { na.Questions = nil }, wantField: "questions", wantTag: "required"},
		{name: "zero marks", mutate: func(na *assessment.NewAssessment) { na.Questions[1].Marks = 0 }, wantField: "marks", wantTag: "required"},
		{name: "unknown type", mutate: func(na *assessment.NewAssessment) { na.Questions[1].Type = "essay" }, wantField: "type", wantTag: "oneof"},
		{
			name:      "single option",
			mutate:    func(na *assessment.NewAssessment) { na.Questions[0].Options = []string{"Kinshasa"} },
			wantField: "options", wantTag: "mcoptions",
		},
		{
			name:      "answer not in options",
			mutate:    func(na *assessment.NewAssessment) { na.Questions[0].CorrectAnswer = "Goma" },
			wantField: "correct_answer", wantTag: "mcanswer",
		},
		{
			name:      "text question with options",
			mutate:    func(na *assessment.NewAssessment) { na.Questions[1].Options = []string{"a", "b"} },
			wantField: "options", wantTag: "textnochoices",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			na := validAssessment()
			tt.mutate(&na)
			_, err := f.svc.Create(ctx, f.teacher, na)
			verrs, ok := err.(validator.ValidationErrors)
			if assert.Truef(t, ok, "want validator.ValidationErrors, got %v", err) {
				assert.Equal(t, tt.wantField, verrs[0].Field())
				assert.Equal(t, tt.wantTag, verrs[0].Tag())
			}
		})
	}
}

func Test_service_lists(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	due := core.Now().Add(time.Hour)
	a1 := testutil.CreateAssessment(t, f.repos.Assessments, f.teacher.ID, "A1", due, testutil.TextQuestion("q1", 1))
	a2 := testutil.CreateAssessment(t, f.repos.Assessments, f.other.ID, "A2", due, testutil.TextQuestion("q1", 1))

	got, err := f.svc.TeacherAssessments(ctx, f.teacher.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a1.ID, got[0].ID)

	got, err = f.svc.StudentAssessments(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a1.ID, got[0].ID)

	got, err = f.svc.StudentAssessments(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.All(ctx, f.admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a1.ID, a2.ID}, []string{got[0].ID, got[1].ID})

	_, err = f.svc.All(ctx, f.teacher)
	assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))

	_, err = f.svc.GetByID(ctx, "lol")
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))
}
