package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) repositories.ExamRepository {
	return &examRepository{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *examRepository) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	if err := getDB(r.db, tx).WithContext(ctx).Omit("Questions", "Bank").Create(exam).Error; err != nil {
		return handleDBError(err, "create exam")
	}
	return nil
}

func (r *examRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := getDB(r.db, tx).WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, handleDBError(err, "get exam by id")
	}
	if err := r.fillComputed(ctx, tx, []*models.Exam{&exam}); err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Questions.Question.Options", preloadOptions).
		First(&exam, id).Error; err != nil {
		return nil, handleDBError(err, "get exam with questions")
	}

	exam.QuestionsCount = len(exam.Questions)
	exam.TotalPoints = 0
	for _, eq := range exam.Questions {
		exam.TotalPoints += eq.Score
	}
	return &exam, nil
}

func (r *examRepository) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	if err := getDB(r.db, tx).WithContext(ctx).
		Model(exam).
		Select("name", "start_time", "end_time", "updated_at").
		Updates(exam).Error; err != nil {
		return handleDBError(err, "update exam")
	}
	return nil
}

func (r *examRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(r.db, tx).WithContext(ctx).Delete(&models.Exam{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete exam")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete exam")
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *examRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var (
		exams []*models.Exam
		total int64
	)

	query := getDB(r.db, tx).WithContext(ctx).Model(&models.Exam{})
	if filters.Name != nil && *filters.Name != "" {
		query = query.Where("name ILIKE ?", likePattern(*filters.Name))
	}
	if filters.BankID != nil {
		query = query.Where("bank_id = ?", *filters.BankID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.ActiveAt != nil {
		query = query.Where("start_time <= ? AND end_time >= ?", *filters.ActiveAt, *filters.ActiveAt)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count exams")
	}

	query = applyPaginationAndSorting(query, map[string]string{
		"created_at": "created_at",
		"start_time": "start_time",
		"end_time":   "end_time",
		"name":       "name",
	}, "start_time", filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)

	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, handleDBError(err, "list exams")
	}
	if err := r.fillComputed(ctx, tx, exams); err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

func (r *examRepository) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.Exam{}).Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count exams")
	}
	return count, nil
}

type examTotals struct {
	ExamID uint
	Count  int
	Points int
}

// fillComputed sets QuestionsCount and TotalPoints with one grouped query.
func (r *examRepository) fillComputed(ctx context.Context, tx *gorm.DB, exams []*models.Exam) error {
	if len(exams) == 0 {
		return nil
	}
	ids := make([]uint, len(exams))
	for i, e := range exams {
		ids[i] = e.ID
	}

	var rows []examTotals
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.ExamQuestion{}).
		Select("exam_id, COUNT(*) AS count, COALESCE(SUM(score), 0) AS points").
		Where("exam_id IN ?", ids).
		Group("exam_id").
		Scan(&rows).Error; err != nil {
		return handleDBError(err, "sum exam points")
	}

	byExam := make(map[uint]examTotals, len(rows))
	for _, row := range rows {
		byExam[row.ExamID] = row
	}
	for _, e := range exams {
		t := byExam[e.ID]
		e.QuestionsCount = t.Count
		e.TotalPoints = t.Points
	}
	return nil
}

// ===== ASSIGNMENTS =====

// ReplaceQuestions drops the exam's assignments and inserts the given ones.
// Callers run it inside a transaction.
func (r *examRepository) ReplaceQuestions(ctx context.Context, tx *gorm.DB, examID uint, assignments []models.ExamQuestion) error {
	db := getDB(r.db, tx).WithContext(ctx)

	if err := db.Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error; err != nil {
		return handleDBError(err, "clear exam questions")
	}
	if len(assignments) == 0 {
		return nil
	}

	for i := range assignments {
		assignments[i].ID = 0
		assignments[i].ExamID = examID
		assignments[i].Question = nil
	}
	if err := db.Create(&assignments).Error; err != nil {
		return handleDBError(err, "create exam questions")
	}
	return nil
}

func (r *examRepository) GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	var eqs []*models.ExamQuestion
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Question.Options", preloadOptions).
		Where("exam_id = ?", examID).
		Order("id ASC").
		Find(&eqs).Error; err != nil {
		return nil, handleDBError(err, "get exam questions")
	}
	return eqs, nil
}

func (r *examRepository) GetQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) (*models.ExamQuestion, error) {
	var eq models.ExamQuestion
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Question.Options", preloadOptions).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		First(&eq).Error; err != nil {
		return nil, handleDBError(err, "get exam question")
	}
	return &eq, nil
}
