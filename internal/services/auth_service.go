package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

const tokenIssuer = "exam-service"

// AuthConfig configures local token issuing and the optional external verifier.
type AuthConfig struct {
	Secret   string
	Expiry   time.Duration
	Verifier casdoor.TokenVerifier
}

type accessClaims struct {
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	config    AuthConfig
	now       func() time.Time
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, config AuthConfig) AuthService {
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		config:    config,
		now:       time.Now,
	}
}

// ===== REGISTRATION =====

func (s *authService) RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*models.User, error) {
	s.logger.Info("Registering student", "student_number", req.StudentNumber)

	if err := validate(s.validator, req); err != nil {
		s.logger.Warn("Student registration rejected", "student_number", req.StudentNumber, "error", err)
		return nil, err
	}

	user := &models.User{
		Role:     models.RoleStudent,
		Account:  req.StudentNumber,
		FullName: req.FullName,
		Class:    req.Class,
		Gender:   req.Gender,
		Phone:    req.Phone,
	}
	if err := s.createAccount(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.logger.Info("Student registered successfully", "user_id", user.ID, "student_number", user.Account)
	return user, nil
}

func (s *authService) RegisterTeacher(ctx context.Context, req *RegisterTeacherRequest) (*models.User, error) {
	s.logger.Info("Registering teacher", "teacher_number", req.TeacherNumber)

	if err := validate(s.validator, req); err != nil {
		s.logger.Warn("Teacher registration rejected", "teacher_number", req.TeacherNumber, "error", err)
		return nil, err
	}

	user := &models.User{
		Role:     models.RoleTeacher,
		Account:  req.TeacherNumber,
		FullName: req.FullName,
		Gender:   req.Gender,
		Phone:    req.Phone,
	}
	if err := s.createAccount(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.logger.Info("Teacher registered successfully", "user_id", user.ID, "teacher_number", user.Account)
	return user, nil
}

func (s *authService) createAccount(ctx context.Context, user *models.User, password string) error {
	exists, err := s.repo.User().ExistsByAccount(ctx, nil, user.Role, user.Account, nil)
	if err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if exists {
		return ErrAccountExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ===== SESSIONS =====

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByAccount(ctx, nil, req.Role, req.Account)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Login failed", "role", req.Role, "account", req.Account, "reason", "unknown account")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn("Login failed", "role", req.Role, "account", req.Account, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "role", user.Role, "account", user.Account)
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) issueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.Expiry)
	claims := accessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *authService) parseToken(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout revokes the token until it would have expired.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return ErrUnauthorized
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if !s.cache.Auth.Available() {
		s.logger.Warn("Token revocation skipped, cache not available", "user_id", claims.Subject)
		return nil
	}
	if err := s.cache.Auth.SetString(ctx, cache.RevokedTokenKey(claims.ID), claims.Subject, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Info("User logged out", "user_id", claims.Subject, "role", claims.Role)
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		if s.config.Verifier != nil && !errors.Is(err, jwt.ErrTokenExpired) {
			return s.authenticateExternal(ctx, token)
		}
		return nil, ErrUnauthorized
	}

	revoked, err := s.cache.Auth.Exists(ctx, cache.RevokedTokenKey(claims.ID))
	if err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		s.logger.Warn("Token revocation check failed", "error", err)
	}
	if revoked {
		return nil, ErrUnauthorized
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.User().GetByID(ctx, nil, uint(id))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Role != claims.Role {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// authenticateExternal verifies an SSO token and provisions or links the local account.
func (s *authService) authenticateExternal(ctx context.Context, token string) (*models.User, error) {
	identity, err := s.config.Verifier.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.repo.User().GetByExternalID(ctx, nil, identity.ExternalID)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load external user: %w", err)
	}

	externalID := identity.ExternalID
	user, err = s.repo.User().GetByAccount(ctx, nil, identity.Role, identity.Account)
	switch {
	case err == nil:
		user.ExternalID = &externalID
		if err := s.repo.User().Update(ctx, nil, user); err != nil {
			return nil, fmt.Errorf("failed to link external user: %w", err)
		}
		s.logger.Info("Linked external identity", "user_id", user.ID, "external_id", externalID)
	case repositories.IsNotFoundError(err):
		user = &models.User{
			Role:       identity.Role,
			Account:    identity.Account,
			FullName:   identity.FullName,
			Gender:     identity.Gender,
			Phone:      identity.Phone,
			ExternalID: &externalID,
		}
		if err := s.repo.User().Create(ctx, nil, user); err != nil {
			return nil, fmt.Errorf("failed to provision external user: %w", err)
		}
		s.logger.Info("Provisioned external user", "user_id", user.ID, "role", user.Role, "account", user.Account)
	default:
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the admin account or resets its password.
func (s *authService) EnsureAdmin(ctx context.Context, account, password string) (*models.User, error) {
	if len(password) < 6 {
		return nil, NewValidationError("password", "must be at least 6 characters", nil)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByAccount(ctx, nil, models.RoleAdmin, account)
	switch {
	case err == nil:
		user.PasswordHash = hash
		if err := s.repo.User().Update(ctx, nil, user); err != nil {
			return nil, fmt.Errorf("failed to update admin: %w", err)
		}
		s.logger.Info("Admin password reset", "account", account)
	case repositories.IsNotFoundError(err):
		user = &models.User{Role: models.RoleAdmin, Account: account, FullName: account, PasswordHash: hash}
		if err := s.repo.User().Create(ctx, nil, user); err != nil {
			return nil, fmt.Errorf("failed to create admin: %w", err)
		}
		s.logger.Info("Admin created", "account", account)
	default:
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	return user, nil
}
