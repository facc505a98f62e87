package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/tathmini/core/assessment"
)

type assessmentRepository struct {
	db *assessmentTable
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db.assessment}
}

func copyAssessment(a assessment.Assessment) assessment.Assessment {
	if a.Questions != nil {
		qs := make([]assessment.Question, 0, len(a.Questions))
		for _, q := range a.Questions {
			q.Options = copyStrings(q.Options)
			qs = append(qs, q)
		}
		a.Questions = qs
	}
	return a
}

func (repo *assessmentRepository) CreateAssessment(_ context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a = copyAssessment(a)
	repo.db.table[a.ID] = &a
	return copyAssessment(a), nil
}

func (repo *assessmentRepository) GetAssessmentByID(_ context.Context, id string) (assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return copyAssessment(*a), nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) FilterAssessments(_ context.Context, createdBy ...string) ([]assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	owners := make(map[string]bool, len(createdBy))
	for _, id := range createdBy {
		owners[id] = true
	}

	asmts := make([]assessment.Assessment, 0)
	for _, a := range repo.db.table {
		if len(owners) == 0 || owners[a.CreatedBy] {
			asmts = append(asmts, copyAssessment(*a))
		}
	}
	sort.Slice(asmts, func(i, j int) bool { return asmts[i].CreatedAt.After(asmts[j].CreatedAt) })
	return asmts, nil
}
