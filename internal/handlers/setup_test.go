package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/metrics"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	adminUser   = &models.User{ID: 1, Role: models.RoleAdmin, Account: "admin", FullName: "admin"}
	teacherUser = &models.User{ID: 2, Role: models.RoleTeacher, Account: "T001", FullName: "王老师"}
	studentUser = &models.User{ID: 3, Role: models.RoleStudent, Account: "2025001", FullName: "张三"}
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Stub services embed the interface so tests only implement what they exercise.

type stubAuth struct {
	services.AuthService
	loggedOut []string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "admin-token":
		return adminUser, nil
	case "teacher-token":
		return teacherUser, nil
	case "student-token":
		return studentUser, nil
	}
	return nil, services.ErrUnauthorized
}

func (s *stubAuth) Login(_ context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	if req.Password != "secret1" {
		return nil, services.ErrInvalidCredentials
	}
	return &services.AuthResponse{Token: "teacher-token", User: teacherUser}, nil
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

type stubStudent struct {
	services.StudentService
	submitted map[uint]*services.SubmitAnswersRequest
	err       error
}

func (s *stubStudent) ListActiveExams(context.Context) ([]*models.Exam, error) {
	return []*models.Exam{}, nil
}

func (s *stubStudent) SubmitAnswers(_ context.Context, _, studentID uint, req *services.SubmitAnswersRequest) error {
	if s.err != nil {
		return s.err
	}
	s.submitted[studentID] = req
	return nil
}

type listingExams struct {
	services.ExamService
	filters repositories.ExamFilters
}

func (s *listingExams) List(_ context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	s.filters = filters
	return []*models.Exam{}, 0, nil
}

type stubReport struct {
	services.ReportService
	filters repositories.GradeFilters
}

func (s *stubReport) ListGrades(_ context.Context, _ uint, filters repositories.GradeFilters) ([]models.GradeSummary, int64, error) {
	s.filters = filters
	return []models.GradeSummary{{StudentID: 3, StudentNumber: "2025001", Name: "张三", Grade: 65}}, 3, nil
}

func (s *stubReport) ExportGrades(_ context.Context, examID uint, filters repositories.GradeFilters) ([]byte, string, error) {
	if examID != 7 {
		return nil, "", services.ErrExamNotFound
	}
	s.filters = filters
	return []byte("xlsx-bytes"), "exam_7_20250601_grades.xlsx", nil
}

type stubAccounts struct {
	services.AccountService
	role  models.UserRole
	query services.AccountQuery
}

func (s *stubAccounts) Create(_ context.Context, role models.UserRole, req *services.CreateAccountRequest) (*models.User, error) {
	s.role = role
	return &models.User{ID: 10, Role: role, Account: req.Account, FullName: req.FullName}, nil
}

func (s *stubAccounts) Query(_ context.Context, role models.UserRole, q services.AccountQuery) ([]*models.User, int64, error) {
	s.role, s.query = role, q
	return []*models.User{}, 0, nil
}

func (s *stubAccounts) Delete(_ context.Context, role models.UserRole, account string) error {
	s.role = role
	if account != "2025001" {
		return services.ErrUserNotFound
	}
	return nil
}

type stubImport struct {
	services.ImportService
	got     *services.ImportRequest
	content string
}

func (s *stubImport) Import(_ context.Context, req *services.ImportRequest) (*services.ImportReport, error) {
	data, err := io.ReadAll(req.File)
	if err != nil {
		return nil, err
	}
	s.got, s.content = req, string(data)
	return &services.ImportReport{BankID: req.BankID, FileName: req.FileName, Total: 2, Imported: 2}, nil
}

type stubManager struct {
	auth      *stubAuth
	student   *stubStudent
	exam      *listingExams
	importer  *stubImport
	report    *stubReport
	account   *stubAccounts
	healthErr error
}

func newStubManager() *stubManager {
	return &stubManager{
		auth:     &stubAuth{},
		student:  &stubStudent{submitted: map[uint]*services.SubmitAnswersRequest{}},
		exam:     &listingExams{},
		importer: &stubImport{},
		report:   &stubReport{},
		account:  &stubAccounts{},
	}
}

func (m *stubManager) Auth() services.AuthService                 { return m.auth }
func (m *stubManager) Account() services.AccountService           { return m.account }
func (m *stubManager) QuestionBank() services.QuestionBankService { return nil }
func (m *stubManager) Question() services.QuestionService         { return nil }
func (m *stubManager) Import() services.ImportService             { return m.importer }
func (m *stubManager) Exam() services.ExamService                 { return m.exam }
func (m *stubManager) Student() services.StudentService           { return m.student }
func (m *stubManager) Grading() services.GradingService           { return nil }
func (m *stubManager) Report() services.ReportService             { return m.report }
func (m *stubManager) Log() services.LogService                   { return nil }
func (m *stubManager) Dashboard() services.DashboardService       { return nil }

func (m *stubManager) Initialize(context.Context) error  { return nil }
func (m *stubManager) HealthCheck(context.Context) error { return m.healthErr }
func (m *stubManager) Shutdown(context.Context) error    { return nil }

func newTestRouter(t *testing.T, sm services.ServiceManager, m *metrics.Metrics) *gin.Engine {
	t.Helper()
	router := gin.New()
	SetupMiddleware(router, testLogger(), config.CORSConfig{}, m)
	NewHandlerManager(sm, testLogger(), config.RateLimitConfig{RPS: 1000, Burst: 1000}, m).SetupRoutes(router)
	return router
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}
