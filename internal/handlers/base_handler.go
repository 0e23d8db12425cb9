package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	if uid, ok := c.Get("user_id"); ok {
		args = append(args, "user_id", uid)
	}
	utils.GetLogger(c, h.logger).Info(message, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string) {
	utils.GetLogger(c, h.logger).Error(message, "error", err, "path", c.FullPath())
}

// handleServiceError maps service errors to HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
	case errors.Is(err, services.ErrQuestionBankNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question bank not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam not found"})
	case errors.Is(err, services.ErrImportJobNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Import job not found"})
	case errors.Is(err, services.ErrLogNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No log file for that day"})
	case errors.Is(err, services.ErrAccountExists):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Account already exists"})
	case errors.Is(err, services.ErrQuestionBankDuplicateName):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Question bank name already exists"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid account or password"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
	case errors.Is(err, services.ErrExamNotActive):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Exam is not open"})
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported file format",
			Details: "accepted formats are .docx, .xlsx and .csv",
		})
	case errors.Is(err, services.ErrInvalidImportFile):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Import file could not be read", Details: err.Error()})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: err.Error()})
	case errors.Is(err, services.ErrStructurerDisabled):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "Question recognition is not configured"})
	case errors.Is(err, services.ErrServiceNotAvailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "Service not available"})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// parseIDParam reads a numeric path parameter and answers 400 when it is malformed.
func parseIDParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid " + label + " ID"})
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads page and size query parameters. Page is 1-based.
func parsePagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func limitOffset(page, size int) (int, int) {
	return size, (page - 1) * size
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// requireUser answers 401 when the auth middleware did not run.
func requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return nil, false
	}
	return user, true
}

func successResponse(message string, data interface{}) models.SuccessResponse {
	return models.SuccessResponse{Message: message, Data: data, Timestamp: time.Now().UTC()}
}
