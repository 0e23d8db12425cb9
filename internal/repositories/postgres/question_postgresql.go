package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) repositories.QuestionRepository {
	return &questionRepository{db: db}
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// ===== BASIC CRUD OPERATIONS =====

func (r *questionRepository) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := getDB(r.db, tx).WithContext(ctx).Create(question).Error; err != nil {
		return handleDBError(err, "create question")
	}
	return nil
}

func (r *questionRepository) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := getDB(r.db, tx).WithContext(ctx).Create(&questions).Error; err != nil {
		return handleDBError(err, "create questions")
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Options", preloadOptions).
		First(&question, id).Error; err != nil {
		return nil, handleDBError(err, "get question by id")
	}
	return &question, nil
}

func (r *questionRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	var questions []*models.Question
	if len(ids) == 0 {
		return questions, nil
	}
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Options", preloadOptions).
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, handleDBError(err, "get questions by ids")
	}
	return questions, nil
}

func (r *questionRepository) ListByBank(ctx context.Context, tx *gorm.DB, bankID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var (
		questions []*models.Question
		total     int64
	)

	query := getDB(r.db, tx).WithContext(ctx).Model(&models.Question{}).Where("bank_id = ?", bankID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Query != "" {
		query = query.Where("content ILIKE ?", likePattern(filters.Query))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count bank questions")
	}

	query = applyPaginationAndSorting(query, map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"type":       "type",
		"id":         "id",
	}, "id", filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)

	if err := query.Preload("Options", preloadOptions).Find(&questions).Error; err != nil {
		return nil, 0, handleDBError(err, "list bank questions")
	}
	return questions, total, nil
}

func (r *questionRepository) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := getDB(r.db, tx).WithContext(ctx).
		Model(question).
		Select("type", "content", "answer", "updated_at").
		Updates(question).Error; err != nil {
		return handleDBError(err, "update question")
	}
	return nil
}

// ReplaceOptions drops every option of the question and inserts options in order.
func (r *questionRepository) ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.QuestionOption) error {
	db := getDB(r.db, tx).WithContext(ctx)

	if err := db.Where("question_id = ?", questionID).Delete(&models.QuestionOption{}).Error; err != nil {
		return handleDBError(err, "delete question options")
	}
	if len(options) == 0 {
		return nil
	}

	for i := range options {
		options[i].ID = 0
		options[i].QuestionID = questionID
		options[i].Position = i
	}
	if err := db.Create(&options).Error; err != nil {
		return handleDBError(err, "create question options")
	}
	return nil
}

func (r *questionRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(r.db, tx).WithContext(ctx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete question")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete question")
	}
	return nil
}

func (r *questionRepository) CountByBank(ctx context.Context, tx *gorm.DB, bankID uint) (int64, error) {
	var count int64
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.Question{}).
		Where("bank_id = ?", bankID).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count bank questions")
	}
	return count, nil
}

type typeCount struct {
	Type  models.QuestionType
	Count int64
}

func (r *questionRepository) CountByType(ctx context.Context, tx *gorm.DB) (map[models.QuestionType]int64, error) {
	var rows []typeCount
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.Question{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "count questions by type")
	}

	out := make(map[models.QuestionType]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Count
	}
	return out, nil
}
