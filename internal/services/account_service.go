package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type accountService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAccountService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AccountService {
	return &accountService{repo: repo, logger: logger, validator: validator}
}

// managedRole rejects roles an administrator cannot manage through this service.
func managedRole(role models.UserRole) error {
	if role != models.RoleStudent && role != models.RoleTeacher {
		return NewValidationError("role", "must be student or teacher", role)
	}
	return nil
}

func (s *accountService) Create(ctx context.Context, role models.UserRole, req *CreateAccountRequest) (*models.User, error) {
	s.logger.Info("Creating account", "role", role, "account", req.Account)

	if err := managedRole(role); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	exists, err := s.repo.User().ExistsByAccount(ctx, nil, role, req.Account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check account: %w", err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Role:         role,
		Account:      req.Account,
		FullName:     req.FullName,
		Gender:       req.Gender,
		Phone:        req.Phone,
		PasswordHash: hash,
	}
	if role == models.RoleStudent {
		user.Class = req.Class
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("Account created successfully", "user_id", user.ID, "role", role, "account", user.Account)
	return user, nil
}

func (s *accountService) Update(ctx context.Context, role models.UserRole, account string, req *UpdateAccountRequest) (*models.User, error) {
	if err := managedRole(role); err != nil {
		return nil, err
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByAccount(ctx, nil, role, account)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get account")
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Class != nil && role == models.RoleStudent {
		class := *req.Class
		user.Class = &class
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	s.logger.Info("Account updated successfully", "user_id", user.ID, "role", role, "account", account)
	return user, nil
}

func (s *accountService) Delete(ctx context.Context, role models.UserRole, account string) error {
	if err := managedRole(role); err != nil {
		return err
	}

	user, err := s.repo.User().GetByAccount(ctx, nil, role, account)
	if err != nil {
		return notFound(err, ErrUserNotFound, "get account")
	}
	if err := s.repo.User().Delete(ctx, nil, user.ID); err != nil {
		return notFound(err, ErrUserNotFound, "delete account")
	}

	s.logger.Info("Account deleted", "user_id", user.ID, "role", role, "account", account)
	return nil
}

// Query returns one account for an exact account match, otherwise a page of the
// role's accounts filtered by substring and class.
func (s *accountService) Query(ctx context.Context, role models.UserRole, q AccountQuery) ([]*models.User, int64, error) {
	if err := managedRole(role); err != nil {
		return nil, 0, err
	}

	if q.Account != "" {
		user, err := s.repo.User().GetByAccount(ctx, nil, role, q.Account)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return []*models.User{}, 0, nil
			}
			return nil, 0, fmt.Errorf("failed to get account: %w", err)
		}
		return []*models.User{user}, 1, nil
	}

	limit, offset := pageToOffset(q.Page, q.Size)
	users, total, err := s.repo.User().List(ctx, nil, repositories.UserFilters{
		Role:      &role,
		Class:     q.Class,
		Query:     q.Query,
		Limit:     limit,
		Offset:    offset,
		SortBy:    "account",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	return users, total, nil
}
