package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

// AdminHandler manages student and teacher accounts and serves the daily log.
// Account routes are registered once per role; the role is bound at setup.
type AdminHandler struct {
	BaseHandler
	accounts services.AccountService
	logs     services.LogService
}

func NewAdminHandler(accounts services.AccountService, logs services.LogService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		accounts:    accounts,
		logs:        logs,
	}
}

// ListAccounts queries accounts of one role
// @Summary Query students or teachers
// @Tags admin
// @Produce json
// @Param account query string false "Exact account"
// @Param q query string false "Name or account substring"
// @Param class query string false "Class (students only)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} models.PaginatedResponse
// @Router /admin/students [get]
// @Router /admin/teachers [get]
func (h *AdminHandler) ListAccounts(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePagination(c)
		q := services.AccountQuery{
			Account: strings.TrimSpace(c.Query("account")),
			Query:   strings.TrimSpace(c.Query("q")),
			Page:    page,
			Size:    size,
		}
		if class := strings.TrimSpace(c.Query("class")); class != "" {
			q.Class = &class
		}

		users, total, err := h.accounts.Query(c.Request.Context(), role, q)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewPaginatedResponse(users, len(users), total, page, size))
	}
}

// CreateAccount adds an account of one role
// @Summary Add a student or teacher
// @Tags admin
// @Accept json
// @Produce json
// @Param request body services.CreateAccountRequest true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 409 {object} ErrorResponse "Account already exists"
// @Router /admin/students [post]
// @Router /admin/teachers [post]
func (h *AdminHandler) CreateAccount(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CreateAccountRequest
		if !h.bindJSON(c, &req) {
			return
		}

		user, err := h.accounts.Create(c.Request.Context(), role, &req)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}

		h.LogRequest(c, "Account created", "role", role, "account", user.Account)
		c.JSON(http.StatusCreated, user)
	}
}

// UpdateAccount edits an account of one role
// @Summary Update a student or teacher
// @Tags admin
// @Accept json
// @Produce json
// @Param account path string true "Account"
// @Param request body services.UpdateAccountRequest true "Changed fields"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /admin/students/{account} [put]
// @Router /admin/teachers/{account} [put]
func (h *AdminHandler) UpdateAccount(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := c.Param("account")
		var req services.UpdateAccountRequest
		if !h.bindJSON(c, &req) {
			return
		}

		user, err := h.accounts.Update(c.Request.Context(), role, account, &req)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}

		h.LogRequest(c, "Account updated", "role", role, "account", account)
		c.JSON(http.StatusOK, user)
	}
}

// DeleteAccount removes an account of one role
// @Summary Delete a student or teacher
// @Tags admin
// @Param account path string true "Account"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /admin/students/{account} [delete]
// @Router /admin/teachers/{account} [delete]
func (h *AdminHandler) DeleteAccount(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := c.Param("account")

		if err := h.accounts.Delete(c.Request.Context(), role, account); err != nil {
			h.handleServiceError(c, err)
			return
		}

		h.LogRequest(c, "Account deleted", "role", role, "account", account)
		c.Status(http.StatusNoContent)
	}
}

// ReadLog returns the log file of a day, today by default
// @Summary View the service log
// @Tags admin
// @Produce json
// @Param date query string false "Day as YYYYMMDD"
// @Success 200 {object} services.LogFile
// @Failure 400 {object} ErrorResponse "Bad date"
// @Failure 404 {object} ErrorResponse "No log file for that day"
// @Router /admin/logs [get]
func (h *AdminHandler) ReadLog(c *gin.Context) {
	logFile, err := h.logs.Read(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logFile)
}
