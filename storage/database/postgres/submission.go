package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/submission"
)

const submissionColumns = "id, assessment_id, student_id, answers, submitted_at, is_completed, auto_graded_marks, marks_awarded"

type (
	submissionRepository struct {
		db core.DB
	}

	submissionRow struct {
		ID              string         `db:"id"`
		AssessmentID    string         `db:"assessment_id"`
		StudentID       string         `db:"student_id"`
		Answers         types.JSONText `db:"answers"`
		SubmittedAt     time.Time      `db:"submitted_at"`
		IsCompleted     bool           `db:"is_completed"`
		AutoGradedMarks null.Int       `db:"auto_graded_marks"`
		MarksAwarded    null.Int       `db:"marks_awarded"`
	}
)

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db core.DB) submission.Repository {
	return &submissionRepository{db: db}
}

func toSubmissionRow(s submission.Submission) (submissionRow, error) {
	answers := s.Answers
	if answers == nil {
		answers = []submission.Answer{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return submissionRow{}, errors.Wrap(err, "encoding answers")
	}

	return submissionRow{
		ID:              s.ID,
		AssessmentID:    s.AssessmentID,
		StudentID:       s.StudentID,
		Answers:         types.JSONText(raw),
		SubmittedAt:     s.SubmittedAt.UTC(),
		IsCompleted:     s.IsCompleted,
		AutoGradedMarks: null.IntFromPtr(s.AutoGradedMarks),
		MarksAwarded:    null.IntFromPtr(s.MarksAwarded),
	}, nil
}

func (r submissionRow) toSubmission() (submission.Submission, error) {
	s := submission.Submission{
		ID:              r.ID,
		AssessmentID:    r.AssessmentID,
		StudentID:       r.StudentID,
		SubmittedAt:     r.SubmittedAt.UTC(),
		IsCompleted:     r.IsCompleted,
		AutoGradedMarks: r.AutoGradedMarks.Ptr(),
		MarksAwarded:    r.MarksAwarded.Ptr(),
	}
	if err := r.Answers.Unmarshal(&s.Answers); err != nil {
		return submission.Submission{}, errors.Wrap(err, "decoding answers")
	}
	return s, nil
}

func filterClause(filter submission.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.AssessmentID != "" {
		conds = append(conds, "assessment_id = ?")
		args = append(args, filter.AssessmentID)
	}
	if filter.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	row, err := toSubmissionRow(s)
	if err != nil {
		return submission.Submission{}, err
	}
	q := `INSERT INTO submissions (` + submissionColumns + `)
		VALUES (:id, :assessment_id, :student_id, :answers, :submitted_at, :is_completed, :auto_graded_marks, :marks_awarded)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return submission.Submission{}, submission.ErrDuplicate
		}
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

// UpsertSubmission makes sure the row of the pair exists, then locks it for the update.
func (repo *submissionRepository) UpsertSubmission(
	ctx context.Context,
	assessmentID, studentID string,
	update func(s *submission.Submission),
) (submission.Submission, error) {
	var saved submission.Submission
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO submissions (id, assessment_id, student_id, submitted_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (assessment_id, student_id) DO NOTHING`,
			core.NewID(), assessmentID, studentID, core.Now(),
		)
		if err != nil {
			return errors.Wrap(err, "reserving submission")
		}

		var row submissionRow
		q := `SELECT ` + submissionColumns + ` FROM submissions WHERE assessment_id = $1 AND student_id = $2 FOR UPDATE`
		if err = tx.GetContext(ctx, &row, q, assessmentID, studentID); err != nil {
			return errors.Wrap(err, "locking submission")
		}
		s, err := row.toSubmission()
		if err != nil {
			return err
		}

		id := s.ID
		update(&s)
		s.ID, s.AssessmentID, s.StudentID = id, assessmentID, studentID
		if row, err = toSubmissionRow(s); err != nil {
			return err
		}
		q = `UPDATE submissions SET answers = :answers, submitted_at = :submitted_at, is_completed = :is_completed,
			auto_graded_marks = :auto_graded_marks, marks_awarded = :marks_awarded WHERE id = :id`
		if _, err = tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "updating submission")
		}
		saved = s
		return nil
	})
	if err != nil {
		return submission.Submission{}, err
	}
	return saved, nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	row, err := toSubmissionRow(s)
	if err != nil {
		return submission.Submission{}, err
	}
	q := `UPDATE submissions SET answers = :answers, submitted_at = :submitted_at, is_completed = :is_completed,
		auto_graded_marks = :auto_graded_marks, marks_awarded = :marks_awarded WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return s, nil
}

func (repo *submissionRepository) getOne(ctx context.Context, q string, args ...interface{}) (submission.Submission, error) {
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "selecting submission")
	}
	return row.toSubmission()
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	return repo.getOne(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, assessmentID, studentID string) (submission.Submission, error) {
	return repo.getOne(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE assessment_id = $1 AND student_id = $2`,
		assessmentID, studentID,
	)
}

func (repo *submissionRepository) FilterSubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	where, args := filterClause(filter)
	q := `SELECT ` + submissionColumns + ` FROM submissions` + where +
		` ORDER BY ` + core.DBOrdering{Field: "submitted_at"}.String()

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		s, err := r.toSubmission()
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, nil
}

func (repo *submissionRepository) DeleteSubmissions(ctx context.Context, filter submission.QueryFilter) error {
	where, args := filterClause(filter)
	if where == "" {
		return errors.New("refusing to delete every submission")
	}
	if _, err := repo.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, `DELETE FROM submissions`+where), args...); err != nil {
		return errors.Wrap(err, "deleting submissions")
	}
	return nil
}
