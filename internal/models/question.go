package models

import (
	"time"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	FillInBlank    QuestionType = "fill_blank"
	Subjective     QuestionType = "subjective"
	TrueFalse      QuestionType = "true_false"
)

// Display labels used by the question recognition prompt and by imported files.
var questionTypeLabels = map[QuestionType]string{
	SingleChoice:   "单选题",
	MultipleChoice: "多选题",
	FillInBlank:    "填空题",
	Subjective:     "主观题",
	TrueFalse:      "判断题",
}

// Canonical judgment labels for true/false options.
const (
	TrueLabel  = "对"
	FalseLabel = "错"
)

func (t QuestionType) IsValid() bool {
	_, ok := questionTypeLabels[t]
	return ok
}

// IsObjective reports whether answers to the type can be scored by comparing option sets.
func (t QuestionType) IsObjective() bool {
	return t == SingleChoice || t == MultipleChoice || t == TrueFalse
}

func (t QuestionType) Label() string {
	return questionTypeLabels[t]
}

func AllQuestionTypes() []QuestionType {
	return []QuestionType{SingleChoice, MultipleChoice, FillInBlank, Subjective, TrueFalse}
}

type Question struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	BankID  uint         `json:"bank_id" gorm:"not null;index"`
	Type    QuestionType `json:"type" gorm:"not null;size:30;index"`
	Content string       `json:"content" gorm:"type:text;not null"`
	Answer  *string      `json:"answer" gorm:"type:text"` // canonical answer text, letters for choice types

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Bank    *QuestionBank    `json:"-" gorm:"foreignKey:BankID;constraint:OnDelete:CASCADE"`
	Options []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

type QuestionOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	Position   int    `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
}

// CorrectOptionIDs returns the ids of the options flagged correct.
func (q *Question) CorrectOptionIDs() []uint {
	var ids []uint
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// HasOption reports whether optionID belongs to the question.
func (q *Question) HasOption(optionID uint) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}
