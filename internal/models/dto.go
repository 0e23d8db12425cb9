package models

import (
	"time"
)

// ===== PAGINATION =====

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPaginatedResponse builds a page envelope; page is 1-based.
func NewPaginatedResponse(content interface{}, count int, total int64, page, size int) PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page <= 1,
		Last:             page >= totalPages,
		NumberOfElements: count,
		Empty:            count == 0,
	}
}

// ===== GRADE & REPORT DTOs =====

type GradeSummary struct {
	StudentID     uint      `json:"student_id"`
	StudentNumber string    `json:"student_number"`
	Name          string    `json:"name"`
	Class         *string   `json:"class,omitempty"`
	Grade         float64   `json:"grade"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type QuestionReport struct {
	QuestionID   uint         `json:"question_id"`
	Type         QuestionType `json:"type"`
	Content      string       `json:"content"`
	Score        int          `json:"score"`
	Attempts     int          `json:"attempts"`
	CorrectCount int          `json:"correct_count"`
	CorrectRate  float64      `json:"correct_rate"` // percent
	AverageScore float64      `json:"average_score"`
}

type ExamReport struct {
	ExamID      uint             `json:"exam_id"`
	ExamName    string           `json:"exam_name"`
	Students    int              `json:"students"`
	AverageMark float64          `json:"average_mark"`
	Questions   []QuestionReport `json:"questions"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ===== VALIDATION RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
