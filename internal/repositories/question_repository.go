package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

type QuestionBankRepository interface {
	Create(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionBank, error)
	Update(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// List fills QuestionCount on every returned bank
	List(ctx context.Context, tx *gorm.DB, filters QuestionBankFilters) ([]*models.QuestionBank, int64, error)

	ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error)
}

type QuestionRepository interface {
	// Create stores the question together with its options
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error

	// Reads preload options ordered by position
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	ListByBank(ctx context.Context, tx *gorm.DB, bankID uint, filters QuestionFilters) ([]*models.Question, int64, error)

	// Update writes the question's own columns, never its options
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.QuestionOption) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	CountByBank(ctx context.Context, tx *gorm.DB, bankID uint) (int64, error)
	CountByType(ctx context.Context, tx *gorm.DB) (map[models.QuestionType]int64, error)
}

type ImportJobRepository interface {
	Create(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error
	Update(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ImportJob, error)
	ListByBank(ctx context.Context, tx *gorm.DB, bankID uint, limit, offset int) ([]*models.ImportJob, int64, error)
}
