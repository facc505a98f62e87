package assessment

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("assessment not found")
)

type (
	Repository interface {
		CreateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		GetAssessmentByID(ctx context.Context, id string) (Assessment, error)
		// FilterAssessments returns the assessments created by the given teachers (all when none given),
		// most recent first.
		FilterAssessments(ctx context.Context, createdBy ...string) ([]Assessment, error)
	}

	Service interface {
		Create(ctx context.Context, actor user.User, na NewAssessment) (Assessment, error)
		TeacherAssessments(ctx context.Context, teacherID string) ([]Assessment, error)
		StudentAssessments(ctx context.Context, studentID string) ([]Assessment, error)
		GetByID(ctx context.Context, id string) (Assessment, error)
		All(ctx context.Context, actor user.User) ([]Assessment, error)
	}

	service struct {
		repo     Repository
		usrRepo  user.Repository
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, validate *validator.Validate) Service {
	return &service{repo: repo, usrRepo: usrRepo, validate: validate}
}

func (svc *service) Create(ctx context.Context, actor user.User, na NewAssessment) (Assessment, error) {
	if !actor.IsTeacher() {
		return Assessment{}, core.ErrPermissionDenied
	}
	na.Clean()
	if err := svc.validate.Struct(na); err != nil {
		return Assessment{}, err
	}

	a := Assessment{
		ID:          core.NewID(),
		Title:       na.Title,
		Description: na.Description,
		CreatedBy:   actor.ID,
		DueDate:     na.DueDate,
		Questions:   make([]Question, 0, len(na.Questions)),
		CreatedAt:   core.Now(),
	}
	for _, nq := range na.Questions {
		q := Question{
			ID:    core.NewID(),
			Text:  nq.Text,
			Type:  nq.Type,
			Marks: nq.Marks,
		}
		if q.IsMultipleChoice() {
			q.Options = nq.Options
			q.CorrectAnswer = nq.CorrectAnswer
		}
		a.Questions = append(a.Questions, q)
	}
	return svc.repo.CreateAssessment(ctx, a)
}

func (svc *service) TeacherAssessments(ctx context.Context, teacherID string) ([]Assessment, error) {
	return svc.repo.FilterAssessments(ctx, teacherID)
}

// StudentAssessments returns the assessments of the student's teacher.
// An unknown student has no assessments.
func (svc *service) StudentAssessments(ctx context.Context, studentID string) ([]Assessment, error) {
	usr, err := svc.usrRepo.GetUserByID(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return []Assessment{}, nil
		}
		return nil, err
	}
	if !usr.IsStudent() || usr.CreatedBy == "" {
		return []Assessment{}, nil
	}
	return svc.repo.FilterAssessments(ctx, usr.CreatedBy)
}

func (svc *service) GetByID(ctx context.Context, id string) (Assessment, error) {
	return svc.repo.GetAssessmentByID(ctx, id)
}

func (svc *service) All(ctx context.Context, actor user.User) ([]Assessment, error) {
	if !actor.IsAdmin() {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.FilterAssessments(ctx)
}

// ForStudent returns the view of a served to students: correct answers are left out.
func ForStudent(a Assessment) (StudentAssessment, error) {
	var sa StudentAssessment
	if err := copier.Copy(&sa, &a); err != nil {
		return StudentAssessment{}, errors.Wrapf(err, "copying assessment %s", a.ID)
	}
	if sa.Questions == nil {
		sa.Questions = []StudentQuestion{}
	}
	sa.TotalMarks = a.TotalMarks()
	sa.IsOverdue = a.IsOverdue(core.Now())
	return sa, nil
}
