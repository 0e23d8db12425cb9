package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := getDB(r.db, tx).WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := getDB(r.db, tx).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, handleDBError(err, "get user by id")
	}
	return &user, nil
}

func (r *userRepository) GetByAccount(ctx context.Context, tx *gorm.DB, role models.UserRole, account string) (*models.User, error) {
	var user models.User
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("role = ? AND account = ?", role, account).
		First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by account")
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error) {
	var user models.User
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by external id")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := getDB(r.db, tx).WithContext(ctx).Save(user).Error; err != nil {
		return handleDBError(err, "update user")
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(r.db, tx).WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete user")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete user")
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var (
		users []*models.User
		total int64
	)

	query := getDB(r.db, tx).WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Class != nil {
		query = query.Where("class = ?", *filters.Class)
	}
	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("account ILIKE ? OR full_name ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	query = applyPaginationAndSorting(query, map[string]string{
		"created_at": "created_at",
		"account":    "account",
		"full_name":  "full_name",
		"class":      "class",
	}, "created_at", filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}
	return users, total, nil
}

func (r *userRepository) ExistsByAccount(ctx context.Context, tx *gorm.DB, role models.UserRole, account string, excludeID *uint) (bool, error) {
	var count int64
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND account = ?", role, account)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, handleDBError(err, "check account exists")
	}
	return count > 0, nil
}

func (r *userRepository) CountByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error) {
	var count int64
	if err := getDB(r.db, tx).WithContext(ctx).Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count users by role")
	}
	return count, nil
}
