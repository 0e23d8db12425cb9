package repositories

import (
	"errors"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// ===== ERRORS =====

// IsNotFoundError reports whether err wraps a missing-record error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err wraps a unique constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role      *models.UserRole `json:"role"`
	Class     *string          `json:"class"`
	Query     string           `json:"query"` // matches account or full name
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
	SortBy    string           `json:"sort_by"`    // "created_at", "account", "full_name"
	SortOrder string           `json:"sort_order"` // "asc", "desc"
}

type QuestionBankFilters struct {
	Name      *string `json:"name"`
	CreatedBy *uint   `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

type QuestionFilters struct {
	Type      *models.QuestionType `json:"type"`
	Query     string               `json:"query"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`
	SortOrder string               `json:"sort_order"`
}

type ExamFilters struct {
	Name      *string    `json:"name"`
	BankID    *uint      `json:"bank_id"`
	CreatedBy *uint      `json:"created_by"`
	ActiveAt  *time.Time `json:"active_at"` // start_time <= t <= end_time
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

type GradeFilters struct {
	StudentNumber string `json:"student_number"` // substring of the student's account
	Name          string `json:"name"`           // substring of the student's name
	Class         string `json:"class"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// AnswerStats aggregates the stored answers of one exam question.
type AnswerStats struct {
	QuestionID   uint    `json:"question_id"`
	Attempts     int64   `json:"attempts"`
	Graded       int64   `json:"graded"`
	AverageScore float64 `json:"average_score"`
}
