package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

var (
	// Not found
	ErrUserNotFound         = errors.New("user not found")
	ErrQuestionBankNotFound = errors.New("question bank not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrExamNotFound         = errors.New("exam not found")
	ErrImportJobNotFound    = errors.New("import job not found")
	ErrLogNotFound          = errors.New("log file not found")

	// Conflicts
	ErrAccountExists             = errors.New("account already exists")
	ErrQuestionBankDuplicateName = errors.New("question bank name already exists")

	// Auth
	ErrInvalidCredentials = errors.New("invalid account or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// State
	ErrExamNotActive       = errors.New("exam is not open for answers")
	ErrStructurerDisabled  = errors.New("question recognition service is not configured")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrInvalidImportFile   = errors.New("import file could not be read")
	ErrValidationFailed    = errors.New("validation failed")
	ErrServiceNotAvailable = errors.New("service not available")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// PermissionError reports an action the caller's role or ownership does not allow.
type PermissionError struct {
	UserID   uint   `json:"user_id"`
	Resource string `json:"resource"`
	ID       uint   `json:"id"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func NewPermissionError(userID, id uint, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, ID: id, Resource: resource, Action: action, Reason: reason}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ID, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// validationFailed wraps validator output so errors.Is(err, ErrValidationFailed) holds.
func validationFailed(errs validator.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Field + " " + e.Message
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

// validate runs tag validation on req.
func validate(v *validator.Validator, req interface{}) error {
	if err := v.Validate(req); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			return validationFailed(errs)
		}
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return nil
}

// notFound maps a repository miss to sentinel and passes other errors through wrapped.
func notFound(err error, sentinel error, op string) error {
	if repositories.IsNotFoundError(err) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
