package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type importJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) repositories.ImportJobRepository {
	return &importJobRepository{db: db}
}

func (r *importJobRepository) Create(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	if err := getDB(r.db, tx).WithContext(ctx).Create(job).Error; err != nil {
		return handleDBError(err, "create import job")
	}
	return nil
}

func (r *importJobRepository) Update(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	if err := getDB(r.db, tx).WithContext(ctx).Save(job).Error; err != nil {
		return handleDBError(err, "update import job")
	}
	return nil
}

func (r *importJobRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := getDB(r.db, tx).WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, handleDBError(err, "get import job by id")
	}
	return &job, nil
}

func (r *importJobRepository) ListByBank(ctx context.Context, tx *gorm.DB, bankID uint, limit, offset int) ([]*models.ImportJob, int64, error) {
	var (
		jobs  []*models.ImportJob
		total int64
	)

	query := getDB(r.db, tx).WithContext(ctx).Model(&models.ImportJob{}).Where("bank_id = ?", bankID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count import jobs")
	}

	query = applyPaginationAndSorting(query, nil, "created_at", limit, offset, "", "desc")
	if err := query.Find(&jobs).Error; err != nil {
		return nil, 0, handleDBError(err, "list import jobs")
	}
	return jobs, total, nil
}
