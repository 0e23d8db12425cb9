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

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	locker    lock.Locker
	cache     *cache.CacheManager
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, locker lock.Locker, cacheManager *cache.CacheManager) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		locker:    locker,
		cache:     cacheManager,
	}
}

func toOptions(reqs []validator.OptionRequest) []models.QuestionOption {
	options := make([]models.QuestionOption, len(reqs))
	for i, o := range reqs {
		options[i] = models.QuestionOption{Text: o.Text, IsCorrect: o.IsCorrect, Position: i}
	}
	return options
}

func toOptionRequests(options []models.QuestionOption) []validator.OptionRequest {
	reqs := make([]validator.OptionRequest, len(options))
	for i, o := range options {
		reqs[i] = validator.OptionRequest{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	return reqs
}

func (s *questionService) checkOptions(qType models.QuestionType, options []validator.OptionRequest) error {
	return validationFailed(s.validator.GetBusinessValidator().ValidateOptions(qType, options))
}

// questionsChanged drops every cached paper, report and grade list, since any exam
// may show the question.
func (s *questionService) questionsChanged(ctx context.Context) {
	cache.SafeInvalidatePattern(ctx, s.cache.Exam, "paper:*")
	cache.SafeInvalidatePattern(ctx, s.cache.Report, "exam:*")
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, bankID uint, req *CreateQuestionRequest) (*models.Question, error) {
	s.logger.Info("Creating question", "bank_id", bankID, "type", req.Type)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if err := s.checkOptions(req.Type, req.Options); err != nil {
		return nil, err
	}

	question := &models.Question{
		BankID:  bankID,
		Type:    req.Type,
		Content: req.Content,
		Answer:  req.Answer,
	}
	if req.Type.IsObjective() {
		question.Options = toOptions(req.Options)
	}

	err := withLock(ctx, s.locker, s.logger, lock.BankKey(bankID), func() error {
		if _, err := s.repo.QuestionBank().GetByID(ctx, nil, bankID); err != nil {
			return notFound(err, ErrQuestionBankNotFound, "get question bank")
		}
		if err := s.repo.Question().Create(ctx, nil, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Question created successfully", "question_id", question.ID, "bank_id", bankID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrQuestionNotFound, "get question")
	}
	return question, nil
}

// Update changes type, content or answer. A type change is checked against the
// options the question already has.
func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	question, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = withLock(ctx, s.locker, s.logger, lock.BankKey(question.BankID), func() error {
		if req.Type != nil && *req.Type != question.Type {
			if err := s.checkOptions(*req.Type, toOptionRequests(question.Options)); err != nil {
				return err
			}
			question.Type = *req.Type
		}
		if req.Content != nil {
			question.Content = *req.Content
		}
		if req.Answer != nil {
			question.Answer = req.Answer
		}
		if err := s.repo.Question().Update(ctx, nil, question); err != nil {
			return notFound(err, ErrQuestionNotFound, "update question")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.questionsChanged(ctx)
	s.logger.Info("Question updated", "question_id", id)
	return question, nil
}

func (s *questionService) ReplaceOptions(ctx context.Context, id uint, req *ReplaceOptionsRequest) (*models.Question, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	question, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOptions(question.Type, req.Options); err != nil {
		return nil, err
	}

	err = withLock(ctx, s.locker, s.logger, lock.BankKey(question.BankID), func() error {
		return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if err := tx.Question().ReplaceOptions(ctx, nil, id, toOptions(req.Options)); err != nil {
				return fmt.Errorf("failed to replace options: %w", err)
			}
			question, err = tx.Question().GetByID(ctx, nil, id)
			if err != nil {
				return notFound(err, ErrQuestionNotFound, "reload question")
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.questionsChanged(ctx)
	s.logger.Info("Question options replaced", "question_id", id, "options", len(req.Options))
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	question, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = withLock(ctx, s.locker, s.logger, lock.BankKey(question.BankID), func() error {
		if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
			return notFound(err, ErrQuestionNotFound, "delete question")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.questionsChanged(ctx)
	s.logger.Info("Question deleted", "question_id", id, "bank_id", question.BankID)
	return nil
}
