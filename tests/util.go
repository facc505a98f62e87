package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
	logsvc "github.com/trezcool/tathmini/services/logger"
	"github.com/trezcool/tathmini/storage/database/inmem"
)

// Repos are fresh in-memory repositories.
type Repos struct {
	Users       user.Repository
	Assessments assessment.Repository
	Submissions submission.Repository
}

func NewRepos() Repos {
	db := inmemdb.Open()
	return Repos{
		Users:       inmemdb.NewUserRepository(db),
		Assessments: inmemdb.NewAssessmentRepository(db),
		Submissions: inmemdb.NewSubmissionRepository(db),
	}
}

// NewLogger returns a silent logger.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewConsoleLogger(conf, io.Discard), conf)
}

// NewValidate returns a validator with every custom validation registered.
func NewValidate() *validator.Validate {
	validate, _ := NewTranslatedValidate()
	return validate
}

// NewTranslatedValidate returns a validator along with the translator holding its messages.
// Servers rendering validation errors must be given both.
func NewTranslatedValidate() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	assessment.RegisterValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role, createdBy string,
	createdAt ...time.Time,
) user.User {
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        core.NewID(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedBy: createdBy,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func TextQuestion(id string, marks int) assessment.Question {
	return assessment.Question{ID: id, Text: "Question " + id, Type: assessment.TypeText, Marks: marks}
}

func MCQuestion(id string, marks int, correct string, options ...string) assessment.Question {
	return assessment.Question{
		ID:            id,
		Text:          "Question " + id,
		Type:          assessment.TypeMultipleChoice,
		Options:       options,
		CorrectAnswer: correct,
		Marks:         marks,
	}
}

func CreateAssessment(
	t *testing.T,
	repo assessment.Repository,
	teacherID, title string,
	dueDate time.Time,
	questions ...assessment.Question,
) assessment.Assessment {
	a := assessment.Assessment{
		ID:          core.NewID(),
		Title:       title,
		Description: title + " description",
		CreatedBy:   teacherID,
		DueDate:     dueDate.UTC(),
		Questions:   questions,
		CreatedAt:   core.Now(),
	}
	a, err := repo.CreateAssessment(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return a
}

func CreateSubmission(t *testing.T, repo submission.Repository, s submission.Submission) submission.Submission {
	if s.ID == "" {
		s.ID = core.NewID()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = core.Now()
	}
	s, err := repo.CreateSubmission(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
