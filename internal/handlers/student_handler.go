package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

// StudentHandler serves the endpoints a logged-in student uses during an exam.
type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListActiveExams lists the exams open right now
// @Summary List open exams
// @Tags student
// @Produce json
// @Success 200 {array} models.Exam
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /student/exams [get]
func (h *StudentHandler) ListActiveExams(c *gin.Context) {
	exams, err := h.service.ListActiveExams(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exams)
}

// GetPaper returns the exam paper with the student's saved answers
// @Summary Get an exam paper
// @Tags student
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} services.ExamPaper
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Exam is not open"
// @Failure 404 {object} ErrorResponse "Exam not found"
// @Router /student/exams/{id} [get]
func (h *StudentHandler) GetPaper(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	paper, err := h.service.GetPaper(c.Request.Context(), examID, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paper)
}

// SubmitAnswers saves answers for the exam
// @Summary Submit answers
// @Tags student
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param request body services.SubmitAnswersRequest true "Answers"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Exam is not open"
// @Failure 404 {object} ErrorResponse "Exam not found"
// @Router /student/exams/{id}/answers [put]
func (h *StudentHandler) SubmitAnswers(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.SubmitAnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.service.SubmitAnswers(c.Request.Context(), examID, user.ID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Answers submitted", "exam_id", examID, "answers", len(req.Answers))
	c.JSON(http.StatusOK, successResponse("Answers saved", gin.H{"exam_id": examID, "answers": len(req.Answers)}))
}

// ListGrades lists the caller's grades across exams
// @Summary List my grades
// @Tags student
// @Produce json
// @Success 200 {array} models.StudentGrade
// @Router /student/grades [get]
func (h *StudentHandler) ListGrades(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	grades, err := h.service.ListGrades(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, grades)
}
