package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission}
}

func copySubmission(s submission.Submission) submission.Submission {
	if s.Answers != nil {
		s.Answers = append(make([]submission.Answer, 0, len(s.Answers)), s.Answers...)
	}
	s.AutoGradedMarks = copyInt(s.AutoGradedMarks)
	s.MarksAwarded = copyInt(s.MarksAwarded)
	return s
}

func matches(s *submission.Submission, filter submission.QueryFilter) bool {
	return (filter.AssessmentID == "" || s.AssessmentID == filter.AssessmentID) &&
		(filter.StudentID == "" || s.StudentID == filter.StudentID)
}

// findPair must be called with the table lock held.
func (repo *submissionRepository) findPair(assessmentID, studentID string) *submission.Submission {
	for _, s := range repo.db.table {
		if s.AssessmentID == assessmentID && s.StudentID == studentID {
			return s
		}
	}
	return nil
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.findPair(s.AssessmentID, s.StudentID) != nil {
		return submission.Submission{}, submission.ErrDuplicate
	}
	s = copySubmission(s)
	repo.db.table[s.ID] = &s
	return copySubmission(s), nil
}

func (repo *submissionRepository) UpdateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.ID]; !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	s = copySubmission(s)
	repo.db.table[s.ID] = &s
	return copySubmission(s), nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return copySubmission(*s), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) GetSubmission(_ context.Context, assessmentID, studentID string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s := repo.findPair(assessmentID, studentID); s != nil {
		return copySubmission(*s), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) UpsertSubmission(
	_ context.Context,
	assessmentID, studentID string,
	update func(s *submission.Submission),
) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s := submission.Submission{ID: core.NewID(), AssessmentID: assessmentID, StudentID: studentID}
	if existing := repo.findPair(assessmentID, studentID); existing != nil {
		s = copySubmission(*existing)
	}
	id := s.ID
	update(&s)
	s.ID, s.AssessmentID, s.StudentID = id, assessmentID, studentID

	s = copySubmission(s)
	repo.db.table[s.ID] = &s
	return copySubmission(s), nil
}

func (repo *submissionRepository) FilterSubmissions(_ context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, s := range repo.db.table {
		if matches(s, filter) {
			subs = append(subs, copySubmission(*s))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *submissionRepository) DeleteSubmissions(_ context.Context, filter submission.QueryFilter) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, s := range repo.db.table {
		if matches(s, filter) {
			delete(repo.db.table, id)
		}
	}
	return nil
}
