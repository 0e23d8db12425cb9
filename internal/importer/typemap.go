package importer

import (
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

var questionTypeAliases = map[string]models.QuestionType{
	"单选题": models.SingleChoice,
	"多选题": models.MultipleChoice,
	"填空题": models.FillInBlank,
	"简答题": models.Subjective,
	"主观题": models.Subjective,
	"判断题": models.TrueFalse,
	"选择题": models.SingleChoice,
	"多选":  models.MultipleChoice,

	string(models.SingleChoice):   models.SingleChoice,
	string(models.MultipleChoice): models.MultipleChoice,
	string(models.FillInBlank):    models.FillInBlank,
	string(models.Subjective):     models.Subjective,
	string(models.TrueFalse):      models.TrueFalse,
}

// MapQuestionType resolves a loosely written type label. Unknown labels resolve to
// subjective with ok == false so callers can report the fallback.
func MapQuestionType(raw string) (t models.QuestionType, ok bool) {
	if t, ok := questionTypeAliases[strings.TrimSpace(raw)]; ok {
		return t, true
	}
	return models.Subjective, false
}
