package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/metrics"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type HandlerManager struct {
	serviceManager services.ServiceManager
	metrics        *metrics.Metrics

	authHandler         *AuthHandler
	studentHandler      *StudentHandler
	questionBankHandler *QuestionBankHandler
	questionHandler     *QuestionHandler
	examHandler         *ExamHandler
	gradingHandler      *GradingHandler
	adminHandler        *AdminHandler
	dashboardHandler    *DashboardHandler

	authMiddleware *AuthMiddleware
	authLimiter    *RateLimiter
}

// NewHandlerManager wires handlers to an initialized service manager. m may be nil,
// in which case /metrics is not served.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	rateLimit config.RateLimitConfig,
	m *metrics.Metrics,
) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		metrics:        m,

		authHandler:    NewAuthHandler(serviceManager.Auth(), logger),
		studentHandler: NewStudentHandler(serviceManager.Student(), logger),
		questionBankHandler: NewQuestionBankHandler(
			serviceManager.QuestionBank(),
			serviceManager.Question(),
			serviceManager.Import(),
			logger,
		),
		questionHandler:  NewQuestionHandler(serviceManager.Question(), logger),
		examHandler:      NewExamHandler(serviceManager.Exam(), logger),
		gradingHandler:   NewGradingHandler(serviceManager.Grading(), serviceManager.Report(), logger),
		adminHandler:     NewAdminHandler(serviceManager.Account(), serviceManager.Log(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), logger),

		authMiddleware: NewAuthMiddleware(serviceManager.Auth(), logger),
		authLimiter:    NewRateLimiter(rateLimit),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)
	if hm.metrics != nil {
		router.GET("/metrics", hm.metrics.Handler())
	}

	v1 := router.Group("/api/v1")

	// Public auth routes, rate limited per client
	auth := v1.Group("/auth")
	{
		limited := auth.Group("", hm.authLimiter.Middleware())
		limited.POST("/students/register", hm.authHandler.RegisterStudent)
		limited.POST("/teachers/register", hm.authHandler.RegisterTeacher)
		limited.POST("/login", hm.authHandler.Login)

		auth.POST("/logout", hm.authMiddleware.Authenticate(), hm.authHandler.Logout)
	}

	protected := v1.Group("", hm.authMiddleware.Authenticate())

	student := protected.Group("/student", hm.authMiddleware.RequireRole(models.RoleStudent))
	{
		student.GET("/exams", hm.studentHandler.ListActiveExams)
		student.GET("/exams/:id", hm.studentHandler.GetPaper)
		student.PUT("/exams/:id/answers", hm.studentHandler.SubmitAnswers)
		student.GET("/grades", hm.studentHandler.ListGrades)
	}

	// Teacher routes; admins pass every role check
	teacher := protected.Group("", hm.authMiddleware.RequireRole(models.RoleTeacher))
	{
		banks := teacher.Group("/question-banks")
		banks.GET("", hm.questionBankHandler.ListQuestionBanks)
		banks.POST("", hm.questionBankHandler.CreateQuestionBank)
		banks.GET("/:id", hm.questionBankHandler.GetQuestionBank)
		banks.PUT("/:id", hm.questionBankHandler.RenameQuestionBank)
		banks.DELETE("/:id", hm.questionBankHandler.DeleteQuestionBank)
		banks.POST("/:id/import", hm.questionBankHandler.ImportQuestions)
		banks.GET("/:id/imports", hm.questionBankHandler.ListImports)
		banks.POST("/:id/questions", hm.questionBankHandler.CreateQuestion)

		questions := teacher.Group("/questions")
		questions.GET("/:id", hm.questionHandler.GetQuestion)
		questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
		questions.PUT("/:id/options", hm.questionHandler.ReplaceOptions)
		questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)

		exams := teacher.Group("/exams")
		exams.GET("", hm.examHandler.ListExams)
		exams.POST("", hm.examHandler.CreateExam)
		exams.GET("/:id", hm.examHandler.GetExam)
		exams.PUT("/:id", hm.examHandler.UpdateExam)
		exams.DELETE("/:id", hm.examHandler.DeleteExam)
		exams.PUT("/:id/questions", hm.examHandler.AssignQuestions)

		exams.POST("/:id/auto-grade", hm.gradingHandler.AutoGradeExam)
		exams.GET("/:id/students/:student_id/answers", hm.gradingHandler.GetGradingSheet)
		exams.PUT("/:id/students/:student_id/grades", hm.gradingHandler.GradeStudent)
		exams.GET("/:id/grades", hm.gradingHandler.ListGrades)
		exams.GET("/:id/grades/export", hm.gradingHandler.ExportGrades)
		exams.GET("/:id/report", hm.gradingHandler.ExamReport)
	}

	admin := protected.Group("/admin", hm.authMiddleware.RequireRole(models.RoleAdmin))
	{
		for path, role := range map[string]models.UserRole{
			"/students": models.RoleStudent,
			"/teachers": models.RoleTeacher,
		} {
			accounts := admin.Group(path)
			accounts.GET("", hm.adminHandler.ListAccounts(role))
			accounts.POST("", hm.adminHandler.CreateAccount(role))
			accounts.PUT("/:account", hm.adminHandler.UpdateAccount(role))
			accounts.DELETE("/:account", hm.adminHandler.DeleteAccount(role))
		}
		admin.GET("/logs", hm.adminHandler.ReadLog)
		admin.GET("/dashboard", hm.dashboardHandler.GetOverview)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	body := gin.H{
		"service":   "exam-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
		body["error"] = err.Error()
	}
	body["status"] = status
	c.JSON(code, body)
}
