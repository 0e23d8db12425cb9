package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is a login account. Account holds the student number, the teacher number
// or the admin username depending on Role.
type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Role     UserRole `json:"role" gorm:"not null;size:20;uniqueIndex:idx_users_role_account"`
	Account  string   `json:"account" gorm:"not null;size:64;uniqueIndex:idx_users_role_account"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`

	// Profile info
	Class  *string `json:"class,omitempty" gorm:"size:100"`
	Gender string  `json:"gender" gorm:"size:10"`
	Phone  string  `json:"phone" gorm:"size:30"`

	PasswordHash string `json:"-" gorm:"size:255"`

	// Set for accounts provisioned from an external identity provider
	ExternalID *string `json:"-" gorm:"size:255;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
