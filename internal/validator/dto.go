package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// ===== TIMESTAMPS =====

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts RFC 3339 and the minute-precision form used by
// datetime-local inputs. Values without a zone are read in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DDTHH:MM or RFC 3339", s)
}

type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// ===== AUTH =====

type RegisterStudentRequest struct {
	StudentNumber   string  `json:"student_number" validate:"required,account"`
	FullName        string  `json:"full_name" validate:"required,max=100"`
	Class           *string `json:"class" validate:"omitempty,max=100"`
	Gender          string  `json:"gender" validate:"omitempty,max=10"`
	Phone           string  `json:"phone" validate:"omitempty,max=30"`
	Password        string  `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
}

type RegisterTeacherRequest struct {
	TeacherNumber   string `json:"teacher_number" validate:"required,account"`
	FullName        string `json:"full_name" validate:"required,max=100"`
	Gender          string `json:"gender" validate:"omitempty,max=10"`
	Phone           string `json:"phone" validate:"omitempty,max=30"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Role     models.UserRole `json:"role" validate:"required,user_role"`
	Account  string          `json:"account" validate:"required,max=64"`
	Password string          `json:"password" validate:"required,max=72"`
}

// ===== ADMIN ACCOUNTS =====

type AccountCreateRequest struct {
	Account  string  `json:"account" validate:"required,account"`
	FullName string  `json:"full_name" validate:"required,max=100"`
	Class    *string `json:"class" validate:"omitempty,max=100"`
	Gender   string  `json:"gender" validate:"omitempty,max=10"`
	Phone    string  `json:"phone" validate:"omitempty,max=30"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
}

type AccountUpdateRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Class    *string `json:"class" validate:"omitempty,max=100"`
	Gender   *string `json:"gender" validate:"omitempty,max=10"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// ===== QUESTION BANKS & QUESTIONS =====

type QuestionBankRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type OptionRequest struct {
	Text      string `json:"text" validate:"required,max=2000"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionCreateRequest struct {
	Type    models.QuestionType `json:"type" validate:"required,question_type"`
	Content string              `json:"content" validate:"required,max=10000"`
	Answer  *string             `json:"answer" validate:"omitempty,max=10000"`
	Options []OptionRequest     `json:"options" validate:"omitempty,max=26,dive"`
}

type QuestionUpdateRequest struct {
	Type    *models.QuestionType `json:"type" validate:"omitempty,question_type"`
	Content *string              `json:"content" validate:"omitempty,min=1,max=10000"`
	Answer  *string              `json:"answer" validate:"omitempty,max=10000"`
}

type ReplaceOptionsRequest struct {
	Options []OptionRequest `json:"options" validate:"max=26,dive"`
}

// ===== EXAMS =====

type ExamCreateRequest struct {
	Name      string    `json:"name" validate:"required,max=200"`
	BankID    uint      `json:"bank_id" validate:"required"`
	StartTime Timestamp `json:"start_time"`
	EndTime   Timestamp `json:"end_time"`
}

type ExamUpdateRequest struct {
	Name      *string    `json:"name" validate:"omitempty,min=1,max=200"`
	StartTime *Timestamp `json:"start_time"`
	EndTime   *Timestamp `json:"end_time"`
}

type ExamQuestionRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
	Score      int  `json:"score" validate:"required,min=1,max=1000"`
}

type AssignQuestionsRequest struct {
	Questions []ExamQuestionRequest `json:"questions" validate:"dive"`
}

// ===== ANSWERS & GRADING =====

// AnswerRequest carries one answer; which field is read depends on the question type.
type AnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	OptionID   *uint  `json:"option_id"`
	OptionIDs  []uint `json:"option_ids" validate:"omitempty,max=26"`
	Text       string `json:"text" validate:"max=10000"`
}

type SubmitAnswersRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

type QuestionGradeRequest struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	Score      float64 `json:"score" validate:"gte=0"`
}

type GradeStudentRequest struct {
	Grades []QuestionGradeRequest `json:"grades" validate:"required,min=1,dive"`
}
