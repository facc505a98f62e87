package submission

import (
	"strings"

	"github.com/trezcool/tathmini/core/assessment"
)

// CleanAnswers trims answers and drops the blank ones.
func CleanAnswers(answers []Answer) []Answer {
	cleaned := make([]Answer, 0, len(answers))
	for _, a := range answers {
		a.QuestionID = strings.TrimSpace(a.QuestionID)
		a.Answer = strings.TrimSpace(a.Answer)
		if a.Answer == "" {
			continue
		}
		cleaned = append(cleaned, a)
	}
	return cleaned
}

// IsComplete compares the number of non-blank answers with the number of questions.
// Questions are not checked one by one: a duplicated answer counts.
func IsComplete(a assessment.Assessment, answers []Answer) bool {
	return len(CleanAnswers(answers)) == len(a.Questions)
}

// AutoGrade sums the marks of the multiple-choice questions answered correctly.
// Text questions never contribute.
func AutoGrade(a assessment.Assessment, answers []Answer) int {
	var marks int
	for _, q := range a.Questions {
		if q.IsMultipleChoice() && isCorrect(q, answers) {
			marks += q.Marks
		}
	}
	return marks
}

// CorrectCount counts the questions having a correct answer that were answered correctly.
func CorrectCount(a assessment.Assessment, answers []Answer) int {
	var n int
	for _, q := range a.Questions {
		if q.CorrectAnswer != "" && isCorrect(q, answers) {
			n++
		}
	}
	return n
}

func isCorrect(q assessment.Question, answers []Answer) bool {
	for _, ans := range answers {
		if ans.QuestionID == q.ID {
			return ans.Answer == q.CorrectAnswer
		}
	}
	return false
}
