package postgres

import (
	"context"
	"math"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

// ===== DASHBOARD STATS =====

func (r *dashboardRepository) GetTotals(ctx context.Context, tx *gorm.DB) (*repositories.DashboardTotals, error) {
	db := getDB(r.db, tx).WithContext(ctx)
	totals := &repositories.DashboardTotals{}

	if err := db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&totals.Students).Error; err != nil {
		return nil, handleDBError(err, "count students")
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleTeacher).Count(&totals.Teachers).Error; err != nil {
		return nil, handleDBError(err, "count teachers")
	}
	if err := db.Model(&models.QuestionBank{}).Count(&totals.QuestionBanks).Error; err != nil {
		return nil, handleDBError(err, "count question banks")
	}
	if err := db.Model(&models.Question{}).Count(&totals.Questions).Error; err != nil {
		return nil, handleDBError(err, "count questions")
	}
	if err := db.Model(&models.Exam{}).Count(&totals.Exams).Error; err != nil {
		return nil, handleDBError(err, "count exams")
	}
	if err := db.Model(&models.StudentGrade{}).Distinct("exam_id").Count(&totals.GradedExams).Error; err != nil {
		return nil, handleDBError(err, "count graded exams")
	}

	return totals, nil
}

func (r *dashboardRepository) GetQuestionDistribution(ctx context.Context, tx *gorm.DB) ([]repositories.QuestionDistributionData, error) {
	var rows []repositories.QuestionDistributionData
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.Question{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Order("count DESC").
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "question distribution")
	}

	var total int64
	for _, row := range rows {
		total += row.Count
	}
	if total > 0 {
		for i := range rows {
			pct := float64(rows[i].Count) / float64(total) * 100
			rows[i].Percentage = math.Round(pct*100) / 100
		}
	}
	return rows, nil
}

func (r *dashboardRepository) GetRecentImports(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.RecentImportData, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []repositories.RecentImportData
	if err := getDB(r.db, tx).WithContext(ctx).
		Table("import_jobs AS j").
		Select(`j.id AS job_id,
			j.bank_id AS bank_id,
			b.name AS bank_name,
			j.file_name AS file_name,
			j.status AS status,
			j.imported AS imported,
			j.skipped AS skipped,
			j.created_at AS created_at`).
		Joins("JOIN question_banks AS b ON b.id = j.bank_id").
		Order("j.created_at DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "recent imports")
	}
	return rows, nil
}
