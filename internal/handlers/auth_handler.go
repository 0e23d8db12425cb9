package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	service services.AuthService
}

func NewAuthHandler(service services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RegisterStudent creates a student account
// @Summary Register a student
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterStudentRequest true "Student registration"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 409 {object} ErrorResponse "Student number already registered"
// @Router /auth/students/register [post]
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req services.RegisterStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.RegisterStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Student registered", "account", user.Account)
	c.JSON(http.StatusCreated, user)
}

// RegisterTeacher creates a teacher account
// @Summary Register a teacher
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterTeacherRequest true "Teacher registration"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 409 {object} ErrorResponse "Teacher number already registered"
// @Router /auth/teachers/register [post]
func (h *AuthHandler) RegisterTeacher(c *gin.Context) {
	var req services.RegisterTeacherRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.RegisterTeacher(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Teacher registered", "account", user.Account)
	c.JSON(http.StatusCreated, user)
}

// Login issues an access token
// @Summary Log in as student, teacher or admin
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Credentials"
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "Invalid account or password"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User logged in", "account", resp.User.Account, "role", resp.User.Role)
	c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented token
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User logged out")
	c.JSON(http.StatusOK, successResponse("Logged out", nil))
}
