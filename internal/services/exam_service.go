package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	locker    lock.Locker
	cache     *cache.CacheManager
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, locker lock.Locker, cacheManager *cache.CacheManager) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		locker:    locker,
		cache:     cacheManager,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID uint) (*models.Exam, error) {
	s.logger.Info("Creating exam", "creator_id", creatorID, "name", req.Name, "bank_id", req.BankID)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.repo.QuestionBank().GetByID(ctx, nil, req.BankID); err != nil {
		return nil, notFound(err, ErrQuestionBankNotFound, "get question bank")
	}

	exam := &models.Exam{
		Name:      req.Name,
		BankID:    req.BankID,
		StartTime: req.StartTime.Time,
		EndTime:   req.EndTime.Time,
		CreatedBy: creatorID,
	}
	if err := s.repo.Exam().Create(ctx, nil, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created successfully", "exam_id", exam.ID)
	return exam, nil
}

// Update merges the set fields into the stored exam and checks the resulting window.
func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest) (*models.Exam, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var exam *models.Exam
	err := withLock(ctx, s.locker, s.logger, lock.ExamKey(id), func() error {
		var err error
		exam, err = s.repo.Exam().GetByID(ctx, nil, id)
		if err != nil {
			return notFound(err, ErrExamNotFound, "get exam")
		}

		if req.Name != nil {
			exam.Name = *req.Name
		}
		if req.StartTime != nil {
			exam.StartTime = req.StartTime.Time
		}
		if req.EndTime != nil {
			exam.EndTime = req.EndTime.Time
		}
		if errs := s.validator.GetBusinessValidator().ValidateExamWindow(exam.StartTime, exam.EndTime); len(errs) > 0 {
			return validationFailed(errs)
		}

		if err := s.repo.Exam().Update(ctx, nil, exam); err != nil {
			return notFound(err, ErrExamNotFound, "update exam")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateExamCache(ctx, s.cache, id)
	s.logger.Info("Exam updated", "exam_id", id)
	return exam, nil
}

func (s *examService) Delete(ctx context.Context, id uint) error {
	err := withLock(ctx, s.locker, s.logger, lock.ExamKey(id), func() error {
		if err := s.repo.Exam().Delete(ctx, nil, id); err != nil {
			return notFound(err, ErrExamNotFound, "delete exam")
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateExamCache(ctx, s.cache, id)
	s.logger.Info("Exam deleted", "exam_id", id)
	return nil
}

func (s *examService) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	return exam, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, total, nil
}

// AssignQuestions replaces the exam's question set. Every question must come from
// the exam's bank.
func (s *examService) AssignQuestions(ctx context.Context, id uint, req *AssignQuestionsRequest) (*models.Exam, error) {
	s.logger.Info("Assigning exam questions", "exam_id", id, "count", len(req.Questions))

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateAssignments(req.Questions); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	err := withLock(ctx, s.locker, s.logger, lock.ExamKey(id), func() error {
		exam, err := s.repo.Exam().GetByID(ctx, nil, id)
		if err != nil {
			return notFound(err, ErrExamNotFound, "get exam")
		}

		ids := make([]uint, len(req.Questions))
		for i, q := range req.Questions {
			ids[i] = q.QuestionID
		}
		questions, err := s.repo.Question().GetByIDs(ctx, nil, ids)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}
		bankOf := make(map[uint]uint, len(questions))
		for _, q := range questions {
			bankOf[q.ID] = q.BankID
		}

		assignments := make([]models.ExamQuestion, len(req.Questions))
		for i, q := range req.Questions {
			bankID, ok := bankOf[q.QuestionID]
			if !ok {
				return NewValidationError(fmt.Sprintf("questions[%d].question_id", i), "question does not exist", q.QuestionID)
			}
			if bankID != exam.BankID {
				return NewValidationError(fmt.Sprintf("questions[%d].question_id", i), "question belongs to another bank", q.QuestionID)
			}
			assignments[i] = models.ExamQuestion{ExamID: id, QuestionID: q.QuestionID, Score: q.Score}
		}

		return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if err := tx.Exam().ReplaceQuestions(ctx, nil, id, assignments); err != nil {
				return fmt.Errorf("failed to assign questions: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateExamCache(ctx, s.cache, id)

	exam, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Exam questions assigned", "exam_id", id, "questions", exam.QuestionsCount, "total_points", exam.TotalPoints)
	return exam, nil
}
