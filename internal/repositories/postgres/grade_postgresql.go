package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gradeRepository struct {
	db *gorm.DB
}

func NewGradeRepository(db *gorm.DB) repositories.GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Upsert(ctx context.Context, tx *gorm.DB, studentID, examID uint, grade float64) error {
	now := time.Now()
	row := &models.StudentGrade{
		StudentID: studentID,
		ExamID:    examID,
		Grade:     grade,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := getDB(r.db, tx).WithContext(ctx).
		Omit("Student", "Exam").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "exam_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"grade", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return handleDBError(err, "upsert grade")
	}
	return nil
}

func (r *gradeRepository) Get(ctx context.Context, tx *gorm.DB, studentID, examID uint) (*models.StudentGrade, error) {
	var grade models.StudentGrade
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		First(&grade).Error; err != nil {
		return nil, handleDBError(err, "get grade")
	}
	return &grade, nil
}

// ListByExam joins the student accounts so filters can match on number, name and class.
func (r *gradeRepository) ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.GradeFilters) ([]models.GradeSummary, int64, error) {
	var (
		rows  []models.GradeSummary
		total int64
	)

	query := getDB(r.db, tx).WithContext(ctx).
		Table("student_grades AS g").
		Joins("JOIN users AS u ON u.id = g.student_id").
		Where("g.exam_id = ?", examID)

	if filters.StudentNumber != "" {
		query = query.Where("u.account ILIKE ?", likePattern(filters.StudentNumber))
	}
	if filters.Name != "" {
		query = query.Where("u.full_name ILIKE ?", likePattern(filters.Name))
	}
	if filters.Class != "" {
		query = query.Where("u.class = ?", filters.Class)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count exam grades")
	}

	query = query.Select(`g.student_id AS student_id,
		u.account AS student_number,
		u.full_name AS name,
		u.class AS class,
		g.grade AS grade,
		g.updated_at AS updated_at`).
		Order("u.account ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, handleDBError(err, "list exam grades")
	}
	return rows, total, nil
}

func (r *gradeRepository) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.StudentGrade, error) {
	var grades []*models.StudentGrade
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Exam").
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&grades).Error; err != nil {
		return nil, handleDBError(err, "list student grades")
	}
	return grades, nil
}

type gradeAverage struct {
	Average float64
	Count   int64
}

func (r *gradeRepository) AverageByExam(ctx context.Context, tx *gorm.DB, examID uint) (float64, int64, error) {
	var out gradeAverage
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.StudentGrade{}).
		Select("COALESCE(AVG(grade), 0) AS average, COUNT(*) AS count").
		Where("exam_id = ?", examID).
		Scan(&out).Error; err != nil {
		return 0, 0, handleDBError(err, "average exam grade")
	}
	return out.Average, out.Count, nil
}
