package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GradingHandler covers grading and the result views of an exam.
type GradingHandler struct {
	BaseHandler
	grading services.GradingService
	reports services.ReportService
}

func NewGradingHandler(grading services.GradingService, reports services.ReportService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler: NewBaseHandler(logger),
		grading:     grading,
		reports:     reports,
	}
}

// AutoGradeExam scores every objective answer of the exam
// @Summary Auto-grade an exam
// @Tags grading
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} services.AutoGradeResult
// @Failure 404 {object} ErrorResponse "Exam not found"
// @Router /exams/{id}/auto-grade [post]
func (h *GradingHandler) AutoGradeExam(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.grading.AutoGradeExam(c.Request.Context(), examID, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exam auto-graded", "exam_id", examID, "answers", result.GradedAnswers, "students", result.GradedStudents)
	c.JSON(http.StatusOK, result)
}

// GetGradingSheet lists one student's answers next to the maximum scores
// @Summary Get a student's answers for grading
// @Tags grading
// @Produce json
// @Param id path int true "Exam ID"
// @Param student_id path int true "Student ID"
// @Success 200 {object} services.GradingSheet
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /exams/{id}/students/{student_id}/answers [get]
func (h *GradingHandler) GetGradingSheet(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	studentID, ok := parseIDParam(c, "student_id", "student")
	if !ok {
		return
	}

	sheet, err := h.grading.GetGradingSheet(c.Request.Context(), examID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// GradeStudent stores manual per-question scores
// @Summary Grade a student manually
// @Tags grading
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param student_id path int true "Student ID"
// @Param request body services.GradeStudentRequest true "Scores per question"
// @Success 200 {object} services.StudentGradeResult
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /exams/{id}/students/{student_id}/grades [put]
func (h *GradingHandler) GradeStudent(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	studentID, ok := parseIDParam(c, "student_id", "student")
	if !ok {
		return
	}
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req services.GradeStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.grading.GradeStudent(c.Request.Context(), examID, studentID, &req, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Student graded", "exam_id", examID, "student_id", studentID, "grade", result.Grade)
	c.JSON(http.StatusOK, result)
}

func gradeFilters(c *gin.Context) repositories.GradeFilters {
	return repositories.GradeFilters{
		StudentNumber: strings.TrimSpace(c.Query("student_number")),
		Name:          strings.TrimSpace(c.Query("name")),
		Class:         strings.TrimSpace(c.Query("class")),
	}
}

// ListGrades lists aggregate grades of the exam
// @Summary List exam grades
// @Tags results
// @Produce json
// @Param id path int true "Exam ID"
// @Param student_number query string false "Student number substring"
// @Param name query string false "Student name substring"
// @Param class query string false "Class"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} models.PaginatedResponse
// @Failure 404 {object} ErrorResponse "Exam not found"
// @Router /exams/{id}/grades [get]
func (h *GradingHandler) ListGrades(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	page, size := parsePagination(c)
	filters := gradeFilters(c)
	filters.Limit, filters.Offset = limitOffset(page, size)

	items, total, err := h.reports.ListGrades(c.Request.Context(), examID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(items, len(items), total, page, size))
}

// ExportGrades downloads the filtered grade list as a spreadsheet
// @Summary Export exam grades to .xlsx
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Exam ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse "Exam not found"
// @Router /exams/{id}/grades/export [get]
func (h *GradingHandler) ExportGrades(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}

	data, filename, err := h.reports.ExportGrades(c.Request.Context(), examID, gradeFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Grades exported", "exam_id", examID, "file", filename)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ExamReport returns per-question statistics
// @Summary Exam report
// @Tags results
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} models.ExamReport
// @Failure 404 {object} ErrorResponse "Exam not found"
// @Router /exams/{id}/report [get]
func (h *GradingHandler) ExamReport(c *gin.Context) {
	examID, ok := parseIDParam(c, "id", "exam")
	if !ok {
		return
	}

	report, err := h.reports.ExamReport(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
