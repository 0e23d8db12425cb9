package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type QuestionBankHandler struct {
	BaseHandler
	service   services.QuestionBankService
	questions services.QuestionService
	importer  services.ImportService
}

func NewQuestionBankHandler(
	service services.QuestionBankService,
	questions services.QuestionService,
	importer services.ImportService,
	logger utils.Logger,
) *QuestionBankHandler {
	return &QuestionBankHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		questions:   questions,
		importer:    importer,
	}
}

// ===== CORE CRUD ENDPOINTS =====

// CreateQuestionBank creates a new question bank
// @Summary Create a new question bank
// @Tags question-banks
// @Accept json
// @Produce json
// @Param request body services.QuestionBankRequest true "Question bank name"
// @Success 201 {object} models.QuestionBank
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 409 {object} ErrorResponse "Conflict - bank name already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /question-banks [post]
func (h *QuestionBankHandler) CreateQuestionBank(c *gin.Context) {
	var req services.QuestionBankRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	bank, err := h.service.Create(c.Request.Context(), &req, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question bank created", "bank_id", bank.ID)
	c.JSON(http.StatusCreated, bank)
}

// ListQuestionBanks lists question banks
// @Summary List question banks
// @Tags question-banks
// @Produce json
// @Param name query string false "Name substring"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} models.PaginatedResponse
// @Router /question-banks [get]
func (h *QuestionBankHandler) ListQuestionBanks(c *gin.Context) {
	page, size := parsePagination(c)
	limit, offset := limitOffset(page, size)

	filters := repositories.QuestionBankFilters{Limit: limit, Offset: offset}
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		filters.Name = &name
	}

	banks, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(banks, len(banks), total, page, size))
}

// GetQuestionBank retrieves a question bank with its questions and options
// @Summary Get a question bank by ID
// @Tags question-banks
// @Produce json
// @Param id path int true "Question Bank ID"
// @Success 200 {object} services.QuestionBankDetail
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /question-banks/{id} [get]
func (h *QuestionBankHandler) GetQuestionBank(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question bank")
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RenameQuestionBank renames a question bank
// @Summary Rename a question bank
// @Tags question-banks
// @Accept json
// @Produce json
// @Param id path int true "Question Bank ID"
// @Param request body services.QuestionBankRequest true "New name"
// @Success 200 {object} models.QuestionBank
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 409 {object} ErrorResponse "Conflict - bank name already exists"
// @Router /question-banks/{id} [put]
func (h *QuestionBankHandler) RenameQuestionBank(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question bank")
	if !ok {
		return
	}
	var req services.QuestionBankRequest
	if !h.bindJSON(c, &req) {
		return
	}

	bank, err := h.service.Rename(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question bank renamed", "bank_id", id)
	c.JSON(http.StatusOK, bank)
}

// DeleteQuestionBank deletes a bank with its questions and exams
// @Summary Delete a question bank
// @Tags question-banks
// @Param id path int true "Question Bank ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /question-banks/{id} [delete]
func (h *QuestionBankHandler) DeleteQuestionBank(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question bank")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question bank deleted", "bank_id", id)
	c.Status(http.StatusNoContent)
}

// ===== QUESTIONS =====

// CreateQuestion adds a question to the bank
// @Summary Create a question
// @Tags question-banks
// @Accept json
// @Produce json
// @Param id path int true "Question Bank ID"
// @Param request body services.CreateQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Question bank not found"
// @Router /question-banks/{id}/questions [post]
func (h *QuestionBankHandler) CreateQuestion(c *gin.Context) {
	bankID, ok := parseIDParam(c, "id", "question bank")
	if !ok {
		return
	}
	var req services.CreateQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.questions.Create(c.Request.Context(), bankID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question created", "bank_id", bankID, "question_id", question.ID)
	c.JSON(http.StatusCreated, question)
}

// ===== IMPORT =====

// ImportQuestions imports a .docx, .xlsx or .csv file into the bank
// @Summary Import questions from a file
// @Tags question-banks
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Question Bank ID"
// @Param file formData file true "Question file"
// @Success 201 {object} services.ImportReport
// @Failure 400 {object} ErrorResponse "Bad request or unsupported format"
// @Failure 404 {object} ErrorResponse "Question bank not found"
// @Failure 503 {object} ErrorResponse "Question recognition is not configured"
// @Router /question-banks/{id}/import [post]
func (h *QuestionBankHandler) ImportQuestions(c *gin.Context) {
	bankID, ok := parseIDParam(c, "id", "question bank")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "A file is required",
			Details: err.Error(),
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Uploaded file could not be opened"})
		return
	}
	defer file.Close()

	report, err := h.importer.Import(c.Request.Context(), &services.ImportRequest{
		BankID:   bankID,
		FileName: header.Filename,
		File:     file,
		UserID:   user.ID,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Questions imported",
		"bank_id", bankID,
		"file", header.Filename,
		"imported", report.Imported,
		"skipped", report.Skipped,
	)
	c.JSON(http.StatusCreated, report)
}

// ListImports lists past import runs of the bank, newest first
// @Summary List import history
// @Tags question-banks
// @Produce json
// @Param id path int true "Question Bank ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} models.PaginatedResponse
// @Failure 404 {object} ErrorResponse "Question bank not found"
// @Router /question-banks/{id}/imports [get]
func (h *QuestionBankHandler) ListImports(c *gin.Context) {
	bankID, ok := parseIDParam(c, "id", "question bank")
	if !ok {
		return
	}
	page, size := parsePagination(c)
	limit, offset := limitOffset(page, size)

	jobs, total, err := h.importer.ListJobs(c.Request.Context(), bankID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(jobs, len(jobs), total, page, size))
}
