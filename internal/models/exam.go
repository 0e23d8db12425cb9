package models

import (
	"time"
)

type Exam struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:200;index"`
	BankID    uint      `json:"bank_id" gorm:"not null;index"`
	StartTime time.Time `json:"start_time" gorm:"not null;index"`
	EndTime   time.Time `json:"end_time" gorm:"not null;index"`

	// Metadata
	CreatedBy uint      `json:"created_by" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Bank      *QuestionBank  `json:"bank,omitempty" gorm:"foreignKey:BankID;constraint:OnDelete:CASCADE"`
	Questions []ExamQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

// IsActiveAt reports whether t falls inside the exam window, bounds included.
func (e *Exam) IsActiveAt(t time.Time) bool {
	return !t.Before(e.StartTime) && !t.After(e.EndTime)
}

// ExamQuestion pins a question of the exam's bank to the exam with a point value.
type ExamQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamID     uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_exam_question"`
	Score      int  `json:"score" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Exam) TableName() string {
	return "exams"
}
