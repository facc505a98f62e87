package assessment

import (
	"time"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/core/user"
)

// Question types
const (
	TypeText           = "text"
	TypeMultipleChoice = "multiple-choice"
)

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Marks         int      `json:"marks"`
}

func (q Question) IsMultipleChoice() bool { return q.Type == TypeMultipleChoice }

// HasOption reports whether answer is one of the options of the question.
func (q Question) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

type Assessment struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedBy   string     `json:"created_by"` // teacher ID
	DueDate     time.Time  `json:"due_date"`   // UTC
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
}

// TotalMarks is the sum of the marks of every question.
func (a Assessment) TotalMarks() int {
	var total int
	for _, q := range a.Questions {
		total += q.Marks
	}
	return total
}

// IsOverdue reports whether the due date has passed at `now`.
// Overdue assessments are read-only for students.
func (a Assessment) IsOverdue(now time.Time) bool {
	return !now.Before(a.DueDate)
}

// Question returns the question with the given ID.
func (a Assessment) Question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// VisibleTo reports whether usr may read the assessment: admins see everything,
// teachers their own assessments and students those of the teacher who created them.
func (a Assessment) VisibleTo(usr user.User) bool {
	switch usr.Role {
	case user.RoleAdmin:
		return true
	case user.RoleTeacher:
		return a.CreatedBy == usr.ID
	case user.RoleStudent:
		return a.CreatedBy == usr.CreatedBy
	}
	return false
}

// StudentQuestion is a Question without its correct answer.
type StudentQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
	Marks   int      `json:"marks"`
}

// StudentAssessment is the view of an Assessment served to students.
type StudentAssessment struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CreatedBy   string            `json:"created_by"`
	DueDate     time.Time         `json:"due_date"`
	Questions   []StudentQuestion `json:"questions"`
	CreatedAt   time.Time         `json:"created_at"`
	TotalMarks  int               `json:"total_marks"`
	IsOverdue   bool              `json:"is_overdue"`
}

type NewQuestion struct {
	Text          string   `json:"text" validate:"required,notblank"`
	Type          string   `json:"type" validate:"required,oneof=text multiple-choice"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Marks         int      `json:"marks" validate:"required,gt=0"`
}

func (nq *NewQuestion) Clean() {
	nq.Text = core.CleanString(nq.Text)
	nq.CorrectAnswer = core.CleanString(nq.CorrectAnswer)
	opts := make([]string, 0, len(nq.Options))
	for _, opt := range nq.Options {
		if opt = core.CleanString(opt); opt != "" {
			opts = append(opts, opt)
		}
	}
	nq.Options = opts
}

// NewAssessment contains information needed to create a new Assessment.
type NewAssessment struct {
	Title       string        `json:"title" validate:"required,notblank"`
	Description string        `json:"description" validate:"required,notblank"`
	DueDate     time.Time     `json:"due_date" validate:"required"`
	Questions   []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (na *NewAssessment) Clean() {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.DueDate = na.DueDate.UTC()
	for i := range na.Questions {
		na.Questions[i].Clean()
	}
}
