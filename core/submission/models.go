package submission

import (
	"time"
)

// Statuses
const (
	StatusNotStarted = "not_started"
	StatusDraft      = "draft"
	StatusCompleted  = "completed"
	StatusGraded     = "graded"
)

type Answer struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

type Submission struct {
	ID              string    `json:"id"`
	AssessmentID    string    `json:"assessment_id"`
	StudentID       string    `json:"student_id"`
	Answers         []Answer  `json:"answers"`
	SubmittedAt     time.Time `json:"submitted_at"` // UTC
	IsCompleted     bool      `json:"is_completed"`
	AutoGradedMarks *int      `json:"auto_graded_marks"`
	MarksAwarded    *int      `json:"marks_awarded"`
}

// Status returns the state of the submission: draft → completed → graded.
func (s *Submission) Status() string {
	switch {
	case s == nil:
		return StatusNotStarted
	case s.MarksAwarded != nil:
		return StatusGraded
	case s.IsCompleted:
		return StatusCompleted
	default:
		return StatusDraft
	}
}

// Score returns the marks to display: awarded marks override the auto-graded ones.
func (s Submission) Score() (int, bool) {
	if s.MarksAwarded != nil {
		return *s.MarksAwarded, true
	}
	if s.AutoGradedMarks != nil {
		return *s.AutoGradedMarks, true
	}
	return 0, false
}

// Answer returns the answer given to the question, if any.
func (s Submission) Answer(questionID string) (string, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a.Answer, true
		}
	}
	return "", false
}

type SaveAnswers struct {
	Answers []Answer `json:"answers" validate:"dive"`
}

type AwardMarks struct {
	Marks *int `json:"marks" validate:"required,gte=0"`
}

type QueryFilter struct {
	AssessmentID string
	StudentID    string
}
