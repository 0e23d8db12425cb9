package importer

import (
	"encoding/json"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

type RecordStatus string

const (
	StatusAccepted          RecordStatus = "accepted"
	StatusParseFailed       RecordStatus = "parse_failed"
	StatusRejected          RecordStatus = "rejected"
	StatusRecognitionFailed RecordStatus = "recognition_failed"
)

type StructuredOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// StructuredQuestion is the object the completion service is asked to return.
// Unknown keys are ignored.
type StructuredQuestion struct {
	QuestionType string             `json:"question_type"`
	Content      string             `json:"content"`
	Answer       string             `json:"answer"`
	Options      []StructuredOption `json:"options"`
}

type ParseResult struct {
	Status        RecordStatus
	Question      *StructuredQuestion
	Type          models.QuestionType
	TypeDefaulted bool
	Reason        string
}

func (r ParseResult) Accepted() bool {
	return r.Status == StatusAccepted
}

// Parse decodes a normalized reply and applies the acceptance rules:
// content must be non-blank, and objective questions need at least one option
// and a non-blank answer. Objectivity is decided on the mapped type.
func Parse(normalized string) ParseResult {
	text := strings.TrimSpace(normalized)
	if !strings.HasPrefix(text, "{") {
		return ParseResult{Status: StatusParseFailed, Reason: "reply is not a JSON object"}
	}

	var q StructuredQuestion
	if err := json.Unmarshal([]byte(text), &q); err != nil {
		return ParseResult{Status: StatusParseFailed, Reason: err.Error()}
	}

	qt, known := MapQuestionType(q.QuestionType)
	result := ParseResult{
		Question:      &q,
		Type:          qt,
		TypeDefaulted: !known,
	}

	switch {
	case strings.TrimSpace(q.Content) == "":
		result.Status = StatusRejected
		result.Reason = "content is blank"
	case qt.IsObjective() && len(q.Options) == 0:
		result.Status = StatusRejected
		result.Reason = "objective question has no options"
	case qt.IsObjective() && strings.TrimSpace(q.Answer) == "":
		result.Status = StatusRejected
		result.Reason = "objective question has a blank answer"
	default:
		result.Status = StatusAccepted
	}
	return result
}

// ToModel builds an unsaved question for bankID. Options are kept only for objective types.
func (r ParseResult) ToModel(bankID uint) *models.Question {
	q := &models.Question{
		BankID:  bankID,
		Type:    r.Type,
		Content: strings.TrimSpace(r.Question.Content),
	}
	if answer := strings.TrimSpace(r.Question.Answer); answer != "" {
		q.Answer = &answer
	}
	if r.Type.IsObjective() {
		for i, o := range r.Question.Options {
			q.Options = append(q.Options, models.QuestionOption{
				Text:      strings.TrimSpace(o.Text),
				IsCorrect: o.IsCorrect,
				Position:  i,
			})
		}
	}
	return q
}
