package assessment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tathmini/core"
)

var (
	futureDateTag  = "futuredate"
	futureDateText = "due date must be in the future"

	mcOptionsTag  = "mcoptions"
	mcOptionsText = "multiple-choice questions need at least 2 options"

	mcAnswerTag  = "mcanswer"
	mcAnswerText = "correct answer must be one of the options"

	textNoChoicesTag  = "textnochoices"
	textNoChoicesText = "text questions cannot have options or a correct answer"
)

// RegisterValidators registers the assessment validations & their translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(assessmentStructValidation, NewAssessment{})
	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, futureDateTag, futureDateText)
	core.RegisterCustomTranslation(validate, translator, mcOptionsTag, mcOptionsText)
	core.RegisterCustomTranslation(validate, translator, mcAnswerTag, mcAnswerText)
	core.RegisterCustomTranslation(validate, translator, textNoChoicesTag, textNoChoicesText)
}

func assessmentStructValidation(sl validator.StructLevel) {
	na := sl.Current().Interface().(NewAssessment)
	if !na.DueDate.IsZero() && !na.DueDate.After(core.Now()) {
		sl.ReportError(na.DueDate, "due_date", "DueDate", futureDateTag, "")
	}
}

func questionStructValidation(sl validator.StructLevel) {
	nq := sl.Current().Interface().(NewQuestion)
	switch nq.Type {
	case TypeMultipleChoice:
		if len(nq.Options) < 2 {
			sl.ReportError(nq.Options, "options", "Options", mcOptionsTag, "")
			return
		}
		for _, opt := range nq.Options {
			if opt == nq.CorrectAnswer {
				return
			}
		}
		sl.ReportError(nq.CorrectAnswer, "correct_answer", "CorrectAnswer", mcAnswerTag, "")
	case TypeText:
		if len(nq.Options) > 0 || nq.CorrectAnswer != "" {
			sl.ReportError(nq.Options, "options", "Options", textNoChoicesTag, "")
		}
	}
}
