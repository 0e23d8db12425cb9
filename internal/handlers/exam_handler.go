package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	service services.ExamService
}

func NewExamHandler(service services.ExamService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateExam creates an exam over one question bank
// @Summary Create an exam
// @Tags exams
// @Accept json
// @Produce json
// @Param request body services.CreateExamRequest true "Exam; times accept YYYY-MM-DDTHH:MM or RFC 3339"
// @Success 201 {object} models.Exam
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Question bank not found"
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req services.CreateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	exam, err := h.service.Create(c.Request.Context(), &req, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exam created", "exam_id", exam.ID, "bank_id", exam.BankID)
	c.JSON(http.StatusCreated, exam)
}

// ListExams lists exams
// @Summary List exams
// @Tags exams
// @Produce json
// @Param name query string false "Name substring"
// @Param bank_id query int false "Question bank"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} models.PaginatedResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, size := parsePagination(c)
	limit, offset := limitOffset(page, size)

	filters := repositories.ExamFilters{Limit: limit, Offset: offset}
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		filters.Name = &name
	}
	if raw := c.Query("bank_id"); raw != "" {
		bankID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid question bank ID"})
			return
		}
		id := uint(bankID)
		filters.BankID = &id
	}

	exams, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(exams, len(exams), total, page, size))
}

// GetExam returns an exam with its assigned questions
// @Summary Get an exam
// @Tags exams
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} models.Exam
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}

	exam, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// UpdateExam edits name and window
// @Summary Update an exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param request body services.UpdateExamRequest true "Changed fields"
// @Success 200 {object} models.Exam
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /exams/{id} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	var req services.UpdateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exam updated", "exam_id", id)
	c.JSON(http.StatusOK, exam)
}

// DeleteExam deletes an exam with its answers and grades
// @Summary Delete an exam
// @Tags exams
// @Param id path int true "Exam ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exam deleted", "exam_id", id)
	c.Status(http.StatusNoContent)
}

// AssignQuestions replaces the exam's question set
// @Summary Assign questions with scores
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param request body services.AssignQuestionsRequest true "Questions and scores"
// @Success 200 {object} models.Exam
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /exams/{id}/questions [put]
func (h *ExamHandler) AssignQuestions(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	var req services.AssignQuestionsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.service.AssignQuestions(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exam questions assigned", "exam_id", id, "questions", len(req.Questions))
	c.JSON(http.StatusOK, exam)
}
