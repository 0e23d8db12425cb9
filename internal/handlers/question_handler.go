package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	service services.QuestionService
}

func NewQuestionHandler(service services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetQuestion returns a question with its options
// @Summary Get a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question")
	if !ok {
		return
	}

	question, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// UpdateQuestion edits type, content or answer
// @Summary Update a question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param request body services.UpdateQuestionRequest true "Changed fields"
// @Success 200 {object} models.Question
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question")
	if !ok {
		return
	}
	var req services.UpdateQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question updated", "question_id", id)
	c.JSON(http.StatusOK, question)
}

// ReplaceOptions swaps the whole option list of a question
// @Summary Replace question options
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param request body services.ReplaceOptionsRequest true "Options in display order"
// @Success 200 {object} models.Question
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /questions/{id}/options [put]
func (h *QuestionHandler) ReplaceOptions(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question")
	if !ok {
		return
	}
	var req services.ReplaceOptionsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.service.ReplaceOptions(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question options replaced", "question_id", id, "options", len(req.Options))
	c.JSON(http.StatusOK, question)
}

// @Summary Delete a question
// @Tags questions
// @Param id path int true "Question ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "question")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Question deleted", "question_id", id)
	c.Status(http.StatusNoContent)
}
