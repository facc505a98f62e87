package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/assessment"
)

const (
	assessmentColumns = "id, title, description, created_by, due_date, created_at"
	questionColumns   = "id, assessment_id, position, text, type, options, correct_answer, marks"
)

type (
	assessmentRepository struct {
		db core.DB
	}

	assessmentRow struct {
		ID          string    `db:"id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		CreatedBy   string    `db:"created_by"`
		DueDate     time.Time `db:"due_date"`
		CreatedAt   time.Time `db:"created_at"`
	}

	questionRow struct {
		ID            string         `db:"id"`
		AssessmentID  string         `db:"assessment_id"`
		Position      int            `db:"position"`
		Text          string         `db:"text"`
		Type          string         `db:"type"`
		Options       pq.StringArray `db:"options"`
		CorrectAnswer null.String    `db:"correct_answer"`
		Marks         int            `db:"marks"`
	}
)

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db core.DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (r assessmentRow) toAssessment(questions []questionRow) assessment.Assessment {
	a := assessment.Assessment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		DueDate:     r.DueDate.UTC(),
		Questions:   make([]assessment.Question, 0, len(questions)),
		CreatedAt:   r.CreatedAt.UTC(),
	}
	for _, q := range questions {
		var opts []string
		if len(q.Options) > 0 {
			opts = []string(q.Options)
		}
		a.Questions = append(a.Questions, assessment.Question{
			ID:            q.ID,
			Text:          q.Text,
			Type:          q.Type,
			Options:       opts,
			CorrectAnswer: q.CorrectAnswer.String,
			Marks:         q.Marks,
		})
	}
	return a
}

func (repo *assessmentRepository) CreateAssessment(ctx context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		row := assessmentRow{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			CreatedBy:   a.CreatedBy,
			DueDate:     a.DueDate.UTC(),
			CreatedAt:   a.CreatedAt.UTC(),
		}
		q := `INSERT INTO assessments (` + assessmentColumns + `)
			VALUES (:id, :title, :description, :created_by, :due_date, :created_at)`
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "inserting assessment")
		}

		q = `INSERT INTO questions (` + questionColumns + `)
			VALUES (:id, :assessment_id, :position, :text, :type, :options, :correct_answer, :marks)`
		for i, qn := range a.Questions {
			qrow := questionRow{
				ID:            qn.ID,
				AssessmentID:  a.ID,
				Position:      i,
				Text:          qn.Text,
				Type:          qn.Type,
				Options:       pq.StringArray(append([]string{}, qn.Options...)),
				CorrectAnswer: null.NewString(qn.CorrectAnswer, qn.CorrectAnswer != ""),
				Marks:         qn.Marks,
			}
			if _, err := tx.NamedExecContext(ctx, q, qrow); err != nil {
				return errors.Wrap(err, "inserting question")
			}
		}
		return nil
	})
	if err != nil {
		return assessment.Assessment{}, err
	}
	return a, nil
}

func (repo *assessmentRepository) questions(ctx context.Context, ids []string) (map[string][]questionRow, error) {
	var rows []questionRow
	q := `SELECT ` + questionColumns + ` FROM questions WHERE assessment_id = ANY($1) ORDER BY assessment_id, position`
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	byAsmt := make(map[string][]questionRow, len(ids))
	for _, r := range rows {
		byAsmt[r.AssessmentID] = append(byAsmt[r.AssessmentID], r)
	}
	return byAsmt, nil
}

func (repo *assessmentRepository) GetAssessmentByID(ctx context.Context, id string) (assessment.Assessment, error) {
	var row assessmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assessment.Assessment{}, assessment.ErrNotFound
		}
		return assessment.Assessment{}, errors.Wrap(err, "selecting assessment")
	}
	qs, err := repo.questions(ctx, []string{row.ID})
	if err != nil {
		return assessment.Assessment{}, err
	}
	return row.toAssessment(qs[row.ID]), nil
}

func (repo *assessmentRepository) FilterAssessments(ctx context.Context, createdBy ...string) ([]assessment.Assessment, error) {
	var (
		rows []assessmentRow
		args []interface{}
	)
	q := `SELECT ` + assessmentColumns + ` FROM assessments`
	if len(createdBy) > 0 {
		q += ` WHERE created_by = ANY($1)`
		args = append(args, pq.Array(createdBy))
	}
	q += ` ORDER BY ` + core.DBOrdering{Field: "created_at"}.String()

	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting assessments")
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	qs, err := repo.questions(ctx, ids)
	if err != nil {
		return nil, err
	}

	asmts := make([]assessment.Assessment, 0, len(rows))
	for _, r := range rows {
		asmts = append(asmts, r.toAssessment(qs[r.ID]))
	}
	return asmts, nil
}
