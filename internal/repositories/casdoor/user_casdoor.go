package casdoor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

var ErrInvalidClaims = errors.New("casdoor token carries no user id")

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// Identity is the part of a Casdoor user the service provisions local accounts from.
type Identity struct {
	ExternalID string
	Account    string
	FullName   string
	Role       models.UserRole
	Phone      string
	Gender     string
}

// TokenVerifier checks bearer tokens issued by an external identity provider.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

type claimsParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

type UserCasdoor struct {
	client claimsParser
}

func NewUserCasdoor(config CasdoorConfig) *UserCasdoor {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return &UserCasdoor{client: client}
}

// Verify validates the token signature against the configured certificate and
// maps its claims to an Identity.
func (u *UserCasdoor) Verify(token string) (*Identity, error) {
	claims, err := u.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("parse casdoor token failed: %w", err)
	}
	return identityFromClaims(claims)
}

func identityFromClaims(claims *casdoorsdk.Claims) (*Identity, error) {
	if claims == nil || claims.User.Id == "" {
		return nil, ErrInvalidClaims
	}

	account := claims.User.Name
	if account == "" {
		account = claims.User.Id
	}
	fullName := claims.User.DisplayName
	if fullName == "" {
		fullName = account
	}

	return &Identity{
		ExternalID: claims.User.Id,
		Account:    account,
		FullName:   fullName,
		Role:       mapCasdoorRoleToUserRole(claims.User.Type),
		Phone:      claims.User.Phone,
		Gender:     claims.User.Gender,
	}, nil
}

// mapCasdoorRoleToUserRole maps Casdoor user type to internal role
func mapCasdoorRoleToUserRole(casdoorType string) models.UserRole {
	switch strings.ToLower(strings.TrimSpace(casdoorType)) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "educator":
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}
