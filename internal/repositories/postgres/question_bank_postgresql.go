package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type questionBankRepository struct {
	db *gorm.DB
}

func NewQuestionBankRepository(db *gorm.DB) repositories.QuestionBankRepository {
	return &questionBankRepository{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *questionBankRepository) Create(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	if err := getDB(r.db, tx).WithContext(ctx).Create(bank).Error; err != nil {
		return handleDBError(err, "create question bank")
	}
	return nil
}

func (r *questionBankRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionBank, error) {
	db := getDB(r.db, tx)
	var bank models.QuestionBank

	if err := db.WithContext(ctx).First(&bank, id).Error; err != nil {
		return nil, handleDBError(err, "get question bank by id")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Question{}).
		Where("bank_id = ?", id).
		Count(&count).Error; err != nil {
		return nil, handleDBError(err, "count bank questions")
	}
	bank.QuestionCount = int(count)

	return &bank, nil
}

func (r *questionBankRepository) Update(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	if err := getDB(r.db, tx).WithContext(ctx).
		Model(bank).
		Select("name", "updated_at").
		Updates(bank).Error; err != nil {
		return handleDBError(err, "update question bank")
	}
	return nil
}

// Delete removes the bank; questions, options, exams and answers go with it through
// the cascading foreign keys.
func (r *questionBankRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(r.db, tx).WithContext(ctx).Delete(&models.QuestionBank{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete question bank")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete question bank")
	}
	return nil
}

// ===== QUERY OPERATIONS =====

type bankCount struct {
	BankID uint
	Count  int64
}

func (r *questionBankRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionBankFilters) ([]*models.QuestionBank, int64, error) {
	db := getDB(r.db, tx)
	var (
		banks []*models.QuestionBank
		total int64
	)

	query := db.WithContext(ctx).Model(&models.QuestionBank{})
	if filters.Name != nil && *filters.Name != "" {
		query = query.Where("name ILIKE ?", likePattern(*filters.Name))
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count question banks")
	}

	query = applyPaginationAndSorting(query, map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"name":       "name",
		"id":         "id",
	}, "created_at", filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)

	if err := query.Find(&banks).Error; err != nil {
		return nil, 0, handleDBError(err, "list question banks")
	}

	if len(banks) == 0 {
		return banks, total, nil
	}

	ids := make([]uint, len(banks))
	for i, b := range banks {
		ids[i] = b.ID
	}
	var counts []bankCount
	if err := db.WithContext(ctx).Model(&models.Question{}).
		Select("bank_id, COUNT(*) AS count").
		Where("bank_id IN ?", ids).
		Group("bank_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, handleDBError(err, "count questions per bank")
	}
	byBank := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byBank[c.BankID] = c.Count
	}
	for _, b := range banks {
		b.QuestionCount = int(byBank[b.ID])
	}

	return banks, total, nil
}

func (r *questionBankRepository) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	var count int64
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.QuestionBank{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, handleDBError(err, "check question bank name")
	}
	return count > 0, nil
}
