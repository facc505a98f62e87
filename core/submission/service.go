package submission

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("submission not found")
	ErrOverdue         = errors.New("the due date of this assessment has passed")
	ErrUnknownQuestion = errors.New("answers reference an unknown question")
	ErrNotCompleted    = errors.New("only completed submissions can be graded")
	ErrDuplicate       = errors.New("the student already has a submission for this assessment")
	ErrInvalidOption   = errors.New("answer is not one of the question options")
)

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		GetSubmission(ctx context.Context, assessmentID, studentID string) (Submission, error)
		// UpsertSubmission atomically loads the submission of (assessmentID, studentID), creating it
		// when missing, lets `update` modify it and stores the result.
		UpsertSubmission(ctx context.Context, assessmentID, studentID string, update func(s *Submission)) (Submission, error)
		// FilterSubmissions applies AND operation on available QueryFilter fields.
		FilterSubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
		DeleteSubmissions(ctx context.Context, filter QueryFilter) error
	}

	Service interface {
		Submit(ctx context.Context, actor user.User, assessmentID string, answers []Answer) (Submission, error)
		AwardMarks(ctx context.Context, actor user.User, submissionID string, marks int) (Submission, error)
		Get(ctx context.Context, assessmentID, studentID string) (Submission, error)
		ForAssessment(ctx context.Context, assessmentID string) ([]Submission, error)
		All(ctx context.Context, actor user.User) ([]Submission, error)
		DeleteByStudent(ctx context.Context, studentID string) error
		Report(ctx context.Context, actor user.User, assessmentID, search string) (Report, error)
	}

	service struct {
		repo     Repository
		asmtRepo assessment.Repository
		usrRepo  user.Repository
		validate *validator.Validate
	}
)

var (
	_ Service               = (*service)(nil)
	_ user.SubmissionPurger = (*service)(nil)
)

func NewService(
	repo Repository,
	asmtRepo assessment.Repository,
	usrRepo user.Repository,
	validate *validator.Validate,
) Service {
	return &service{repo: repo, asmtRepo: asmtRepo, usrRepo: usrRepo, validate: validate}
}

// Submit saves the answers of a student: the submission of the pair (assessment, student) is created
// or replaced. Once completed, a submission stays completed and is auto-graded on every save.
func (svc *service) Submit(ctx context.Context, actor user.User, assessmentID string, answers []Answer) (Submission, error) {
	asmt, err := svc.asmtRepo.GetAssessmentByID(ctx, assessmentID)
	if err != nil {
		return Submission{}, err
	}
	if !actor.IsStudent() || !asmt.VisibleTo(actor) {
		return Submission{}, core.ErrPermissionDenied
	}

	now := core.Now()
	if asmt.IsOverdue(now) {
		return Submission{}, core.NewFieldError("due_date", ErrOverdue)
	}
	if err = svc.validate.Struct(SaveAnswers{Answers: answers}); err != nil {
		return Submission{}, err
	}
	answers = CleanAnswers(answers)
	for _, ans := range answers {
		q, ok := asmt.Question(ans.QuestionID)
		if !ok {
			return Submission{}, core.NewFieldError("answers", ErrUnknownQuestion)
		}
		if q.IsMultipleChoice() && !q.HasOption(ans.Answer) {
			return Submission{}, core.NewFieldError("answers", ErrInvalidOption)
		}
	}

	return svc.repo.UpsertSubmission(ctx, asmt.ID, actor.ID, func(sub *Submission) {
		sub.Answers = answers
		sub.SubmittedAt = now
		sub.IsCompleted = sub.IsCompleted || IsComplete(asmt, answers)
		sub.AutoGradedMarks = nil
		if sub.IsCompleted {
			marks := AutoGrade(asmt, answers)
			sub.AutoGradedMarks = &marks
		}
	})
}

// AwardMarks sets the final marks of a completed submission. Only the teacher who created
// the assessment may grade it, within 0 and the assessment total.
func (svc *service) AwardMarks(ctx context.Context, actor user.User, submissionID string, marks int) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	asmt, err := svc.asmtRepo.GetAssessmentByID(ctx, sub.AssessmentID)
	if err != nil {
		return Submission{}, err
	}
	if !actor.IsTeacher() || asmt.CreatedBy != actor.ID {
		return Submission{}, core.ErrPermissionDenied
	}

	if !sub.IsCompleted {
		return Submission{}, core.NewFieldError("marks", ErrNotCompleted)
	}
	if total := asmt.TotalMarks(); marks < 0 || marks > total {
		err = fmt.Errorf("marks must be between 0 and %d", total)
		return Submission{}, core.NewFieldError("marks", err)
	}

	sub.MarksAwarded = &marks
	return svc.repo.UpdateSubmission(ctx, sub)
}

func (svc *service) Get(ctx context.Context, assessmentID, studentID string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, assessmentID, studentID)
}

func (svc *service) ForAssessment(ctx context.Context, assessmentID string) ([]Submission, error) {
	return svc.repo.FilterSubmissions(ctx, QueryFilter{AssessmentID: assessmentID})
}

func (svc *service) All(ctx context.Context, actor user.User) ([]Submission, error) {
	if !actor.IsAdmin() {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.FilterSubmissions(ctx, QueryFilter{})
}

func (svc *service) DeleteByStudent(ctx context.Context, studentID string) error {
	if studentID == "" {
		return nil
	}
	return svc.repo.DeleteSubmissions(ctx, QueryFilter{StudentID: studentID})
}

// Report builds the results of an assessment for its teacher (or an admin):
// one row per student of the teacher, filtered by `search`.
func (svc *service) Report(ctx context.Context, actor user.User, assessmentID, search string) (Report, error) {
	asmt, err := svc.asmtRepo.GetAssessmentByID(ctx, assessmentID)
	if err != nil {
		return Report{}, err
	}
	if !(actor.IsAdmin() || (actor.IsTeacher() && asmt.CreatedBy == actor.ID)) {
		return Report{}, core.ErrPermissionDenied
	}

	students, err := svc.usrRepo.FilterUsers(ctx, user.QueryFilter{
		Roles:     []string{user.RoleStudent},
		CreatedBy: asmt.CreatedBy,
		Search:    core.CleanString(search),
	})
	if err != nil {
		return Report{}, errors.Wrap(err, "listing students")
	}
	subs, err := svc.ForAssessment(ctx, asmt.ID)
	if err != nil {
		return Report{}, errors.Wrap(err, "listing submissions")
	}
	return BuildReport(asmt, students, subs), nil
}
