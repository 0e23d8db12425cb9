package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardRepository serves the admin overview counters
type DashboardRepository interface {
	GetTotals(ctx context.Context, tx *gorm.DB) (*DashboardTotals, error)
	GetQuestionDistribution(ctx context.Context, tx *gorm.DB) ([]QuestionDistributionData, error)
	GetRecentImports(ctx context.Context, tx *gorm.DB, limit int) ([]RecentImportData, error)
}

type DashboardTotals struct {
	Students      int64 `json:"students"`
	Teachers      int64 `json:"teachers"`
	QuestionBanks int64 `json:"question_banks"`
	Questions     int64 `json:"questions"`
	Exams         int64 `json:"exams"`
	GradedExams   int64 `json:"graded_exams"`
}

type QuestionDistributionData struct {
	Type       string  `json:"type"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type RecentImportData struct {
	JobID     uint      `json:"job_id"`
	BankID    uint      `json:"bank_id"`
	BankName  string    `json:"bank_name"`
	FileName  string    `json:"file_name"`
	Status    string    `json:"status"`
	Imported  int       `json:"imported"`
	Skipped   int       `json:"skipped"`
	CreatedAt time.Time `json:"created_at"`
}
