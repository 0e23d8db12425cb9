package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	// GetByIDWithQuestions preloads assignments, their questions and options
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)

	// Assignments
	ReplaceQuestions(ctx context.Context, tx *gorm.DB, examID uint, assignments []models.ExamQuestion) error
	GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error)
	GetQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) (*models.ExamQuestion, error)

	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type AnswerRepository interface {
	// Upsert inserts or replaces the answer keyed by (student, exam, question).
	// A replaced answer loses its previous score.
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	Get(ctx context.Context, tx *gorm.DB, studentID, examID, questionID uint) (*models.StudentAnswer, error)

	ListByExamQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) ([]*models.StudentAnswer, error)
	// ListByStudentExam preloads each answer's question with options
	ListByStudentExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) ([]*models.StudentAnswer, error)

	UpdateScore(ctx context.Context, tx *gorm.DB, id uint, score float64, gradedBy *uint, gradedAt time.Time) error
	SumScores(ctx context.Context, tx *gorm.DB, studentID, examID uint) (float64, error)
	StudentIDsByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]uint, error)
	StatsByExam(ctx context.Context, tx *gorm.DB, examID uint) (map[uint]*AnswerStats, error)
}

type GradeRepository interface {
	// Upsert sets the aggregate grade keyed by (student, exam)
	Upsert(ctx context.Context, tx *gorm.DB, studentID, examID uint, grade float64) error
	Get(ctx context.Context, tx *gorm.DB, studentID, examID uint) (*models.StudentGrade, error)

	ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters GradeFilters) ([]models.GradeSummary, int64, error)
	// ListByStudent preloads the exam of each grade
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.StudentGrade, error)
	AverageByExam(ctx context.Context, tx *gorm.DB, examID uint) (float64, int64, error)
}
