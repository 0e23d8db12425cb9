package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// UnansweredText is stored when a grader scores a question the student never answered.
const UnansweredText = "未作答"

type StudentAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	StudentID  uint `json:"student_id" gorm:"not null;uniqueIndex:idx_student_exam_question"`
	ExamID     uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_student_exam_question;index"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_student_exam_question;index"`

	// Answer content, by question type:
	// single choice and true/false use SelectedOptionID,
	// multiple choice uses SelectedOptionIDs (comma-joined ids),
	// everything else uses AnswerText.
	SelectedOptionID  *uint  `json:"selected_option_id"`
	SelectedOptionIDs string `json:"selected_option_ids" gorm:"size:500"`
	AnswerText        string `json:"answer_text" gorm:"type:text"`

	// Grading
	Score    *float64   `json:"score"`
	GradedBy *uint      `json:"graded_by"`
	GradedAt *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student  *User     `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Exam     *Exam     `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// ScoreValue returns the stored score, zero when ungraded.
func (a *StudentAnswer) ScoreValue() float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// StudentGrade is the aggregate score of one student in one exam.
type StudentGrade struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	StudentID uint    `json:"student_id" gorm:"not null;uniqueIndex:idx_student_exam_grade"`
	ExamID    uint    `json:"exam_id" gorm:"not null;uniqueIndex:idx_student_exam_grade;index"`
	Grade     float64 `json:"grade" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *User `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Exam    *Exam `json:"exam,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}

// JoinOptionIDs renders a selection as the stored comma-joined form, sorted and deduplicated.
func JoinOptionIDs(ids []uint) string {
	seen := make(map[uint]struct{}, len(ids))
	uniq := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	parts := make([]string, len(uniq))
	for i, id := range uniq {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

// SplitOptionIDs parses the stored comma-joined form. Blank tokens are dropped,
// tokens are returned trimmed and unparsed.
func SplitOptionIDs(joined string) []string {
	var out []string
	for _, tok := range strings.Split(joined, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
