package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type questionBankService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	locker    lock.Locker
}

func NewQuestionBankService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, locker lock.Locker) QuestionBankService {
	return &questionBankService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		locker:    locker,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionBankService) Create(ctx context.Context, req *QuestionBankRequest, creatorID uint) (*models.QuestionBank, error) {
	s.logger.Info("Creating question bank", "creator_id", creatorID, "name", req.Name)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	exists, err := s.repo.QuestionBank().ExistsByName(ctx, nil, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check bank name uniqueness: %w", err)
	}
	if exists {
		return nil, ErrQuestionBankDuplicateName
	}

	bank := &models.QuestionBank{Name: req.Name, CreatedBy: creatorID}
	if err := s.repo.QuestionBank().Create(ctx, nil, bank); err != nil {
		return nil, fmt.Errorf("failed to create question bank: %w", err)
	}

	s.logger.Info("Question bank created successfully", "bank_id", bank.ID)
	return bank, nil
}

func (s *questionBankService) Rename(ctx context.Context, id uint, req *QuestionBankRequest) (*models.QuestionBank, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	bank, err := s.repo.QuestionBank().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrQuestionBankNotFound, "get question bank")
	}

	exists, err := s.repo.QuestionBank().ExistsByName(ctx, nil, req.Name, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to check bank name uniqueness: %w", err)
	}
	if exists {
		return nil, ErrQuestionBankDuplicateName
	}

	bank.Name = req.Name
	if err := s.repo.QuestionBank().Update(ctx, nil, bank); err != nil {
		return nil, fmt.Errorf("failed to rename question bank: %w", err)
	}

	s.logger.Info("Question bank renamed", "bank_id", id, "name", req.Name)
	return bank, nil
}

// Delete removes the bank with its questions. Imports into the bank are serialized
// with it through the bank lock.
func (s *questionBankService) Delete(ctx context.Context, id uint) error {
	return withLock(ctx, s.locker, s.logger, lock.BankKey(id), func() error {
		if _, err := s.repo.QuestionBank().GetByID(ctx, nil, id); err != nil {
			return notFound(err, ErrQuestionBankNotFound, "get question bank")
		}
		if err := s.repo.QuestionBank().Delete(ctx, nil, id); err != nil {
			return notFound(err, ErrQuestionBankNotFound, "delete question bank")
		}
		s.logger.Info("Question bank deleted", "bank_id", id)
		return nil
	})
}

func (s *questionBankService) List(ctx context.Context, filters repositories.QuestionBankFilters) ([]*models.QuestionBank, int64, error) {
	banks, total, err := s.repo.QuestionBank().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list question banks: %w", err)
	}
	return banks, total, nil
}

func (s *questionBankService) GetDetail(ctx context.Context, id uint) (*QuestionBankDetail, error) {
	bank, err := s.repo.QuestionBank().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, ErrQuestionBankNotFound, "get question bank")
	}

	questions, total, err := s.repo.Question().ListByBank(ctx, nil, id, repositories.QuestionFilters{
		SortBy:    "id",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	bank.QuestionCount = int(total)

	return &QuestionBankDetail{QuestionBank: bank, Questions: questions}, nil
}
