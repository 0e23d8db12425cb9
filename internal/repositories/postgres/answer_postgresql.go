package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) repositories.AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Upsert(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	answer.Score = nil
	answer.GradedBy = nil
	answer.GradedAt = nil

	err := getDB(r.db, tx).WithContext(ctx).
		Omit("Student", "Exam", "Question").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "exam_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_option_id", "selected_option_ids", "answer_text",
				"score", "graded_by", "graded_at", "updated_at",
			}),
		}).
		Create(answer).Error
	if err != nil {
		return handleDBError(err, "upsert answer")
	}
	return nil
}

func (r *answerRepository) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	if err := getDB(r.db, tx).WithContext(ctx).Omit("Student", "Exam", "Question").Create(answer).Error; err != nil {
		return handleDBError(err, "create answer")
	}
	return nil
}

func (r *answerRepository) Get(ctx context.Context, tx *gorm.DB, studentID, examID, questionID uint) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("student_id = ? AND exam_id = ? AND question_id = ?", studentID, examID, questionID).
		First(&answer).Error; err != nil {
		return nil, handleDBError(err, "get answer")
	}
	return &answer, nil
}

func (r *answerRepository) ListByExamQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		Order("student_id ASC").
		Find(&answers).Error; err != nil {
		return nil, handleDBError(err, "list answers by exam question")
	}
	return answers, nil
}

func (r *answerRepository) ListByStudentExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	if err := getDB(r.db, tx).WithContext(ctx).
		Preload("Question.Options", preloadOptions).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, handleDBError(err, "list answers by student exam")
	}
	return answers, nil
}

func (r *answerRepository) UpdateScore(ctx context.Context, tx *gorm.DB, id uint, score float64, gradedBy *uint, gradedAt time.Time) error {
	result := getDB(r.db, tx).WithContext(ctx).Model(&models.StudentAnswer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":      score,
			"graded_by":  gradedBy,
			"graded_at":  gradedAt,
			"updated_at": gradedAt,
		})
	if result.Error != nil {
		return handleDBError(result.Error, "update answer score")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "update answer score")
	}
	return nil
}

func (r *answerRepository) SumScores(ctx context.Context, tx *gorm.DB, studentID, examID uint) (float64, error) {
	var total float64
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.StudentAnswer{}).
		Select("COALESCE(SUM(score), 0)").
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Scan(&total).Error; err != nil {
		return 0, handleDBError(err, "sum answer scores")
	}
	return total, nil
}

func (r *answerRepository) StudentIDsByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]uint, error) {
	var ids []uint
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.StudentAnswer{}).
		Distinct("student_id").
		Where("exam_id = ?", examID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, handleDBError(err, "list exam students")
	}
	return ids, nil
}

func (r *answerRepository) StatsByExam(ctx context.Context, tx *gorm.DB, examID uint) (map[uint]*repositories.AnswerStats, error) {
	var rows []repositories.AnswerStats
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.StudentAnswer{}).
		Select(`question_id,
			COUNT(*) AS attempts,
			COUNT(score) AS graded,
			COALESCE(AVG(score), 0) AS average_score`).
		Where("exam_id = ?", examID).
		Group("question_id").
		Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "answer stats by exam")
	}

	out := make(map[uint]*repositories.AnswerStats, len(rows))
	for i := range rows {
		out[rows[i].QuestionID] = &rows[i]
	}
	return out, nil
}
