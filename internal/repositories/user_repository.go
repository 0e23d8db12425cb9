package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository stores student, teacher and admin accounts.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByAccount(ctx context.Context, tx *gorm.DB, role models.UserRole, account string) (*models.User, error)
	GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	ExistsByAccount(ctx context.Context, tx *gorm.DB, role models.UserRole, account string, excludeID *uint) (bool, error)
	CountByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error)
}
