package submission

import (
	"io"
	"strconv"

	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/user"
)

const (
	ReportSheetName  = "Assessment Results"
	reportDateLayout = "2006-01-02 15:04"
	reportNoValue    = "-"
)

var reportColumns = []string{"Student Name", "Email", "Status", "Submission Date", "Marks", "Auto-calculated Score"}

// Report is the tabular results of an assessment.
type Report struct {
	Title     string
	FileName  string
	Header    []string
	Rows      [][]string
	Students  int
	Completed int
}

// BuildReport returns one row per student: name, email, status, submission date, awarded marks,
// auto-calculated score, then the answer to every question and the expected answers.
func BuildReport(a assessment.Assessment, students []user.User, subs []Submission) Report {
	rep := Report{
		Title:    a.Title,
		FileName: a.Title + " - Results.xlsx",
		Header:   append([]string{}, reportColumns...),
		Rows:     make([][]string, 0, len(students)),
		Students: len(students),
	}

	withAnswer := make([]assessment.Question, 0, len(a.Questions))
	for _, q := range a.Questions {
		rep.Header = append(rep.Header, "Q"+q.ID)
		if q.CorrectAnswer != "" {
			withAnswer = append(withAnswer, q)
		}
	}
	for _, q := range withAnswer {
		rep.Header = append(rep.Header, "Q"+q.ID+"_correct")
	}

	byStudent := make(map[string]Submission, len(subs))
	for _, s := range subs {
		byStudent[s.StudentID] = s
	}

	total := strconv.Itoa(a.TotalMarks())
	for _, st := range students {
		row := make([]string, 0, len(rep.Header))
		row = append(row, st.Name, st.Email)

		sub, ok := byStudent[st.ID]
		if !ok {
			row = append(row, "Not Started", reportNoValue, reportNoValue, reportNoValue)
			for range rep.Header[len(row):] {
				row = append(row, "")
			}
			rep.Rows = append(rep.Rows, row)
			continue
		}

		status, score := "Incomplete", reportNoValue
		if sub.IsCompleted {
			rep.Completed++
			status = "Completed"
			score = strconv.Itoa(CorrectCount(a, sub.Answers)) + " correct answers"
		}
		marks := reportNoValue
		if sub.MarksAwarded != nil {
			marks = strconv.Itoa(*sub.MarksAwarded) + "/" + total
		}
		row = append(row, status, sub.SubmittedAt.Format(reportDateLayout), marks, score)

		for _, q := range a.Questions {
			ans, _ := sub.Answer(q.ID)
			row = append(row, ans)
		}
		for _, q := range withAnswer {
			row = append(row, q.CorrectAnswer)
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// ReportWriter encodes a Report into a downloadable file.
type ReportWriter interface {
	WriteReport(w io.Writer, rep Report) error
	ContentType() string
}
