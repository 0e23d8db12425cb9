package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/importer"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Use business validator types
type RegisterStudentRequest = validator.RegisterStudentRequest
type RegisterTeacherRequest = validator.RegisterTeacherRequest
type LoginRequest = validator.LoginRequest
type CreateAccountRequest = validator.AccountCreateRequest
type UpdateAccountRequest = validator.AccountUpdateRequest

type QuestionBankRequest = validator.QuestionBankRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type ReplaceOptionsRequest = validator.ReplaceOptionsRequest

type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type AssignQuestionsRequest = validator.AssignQuestionsRequest

type SubmitAnswersRequest = validator.SubmitAnswersRequest
type GradeStudentRequest = validator.GradeStudentRequest

// ImportRequest carries one uploaded question file.
type ImportRequest struct {
	BankID   uint
	FileName string
	File     io.Reader
	UserID   uint
}

// AccountQuery selects accounts by exact account, by name or account substring, or all.
type AccountQuery struct {
	Account string
	Query   string
	Class   *string
	Page    int
	Size    int
}

// ===== RESPONSE DTOs =====

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type QuestionBankDetail struct {
	*models.QuestionBank
	Questions []*models.Question `json:"questions"`
}

type ImportReport struct {
	JobID     uint                    `json:"job_id"`
	BankID    uint                    `json:"bank_id"`
	FileName  string                  `json:"file_name"`
	ObjectKey *string                 `json:"object_key,omitempty"`
	Total     int                     `json:"total"`
	Imported  int                     `json:"imported"`
	Skipped   int                     `json:"skipped"`
	Defaulted int                     `json:"type_defaulted"`
	Records   []importer.RecordResult `json:"records"`
}

// PaperOption hides correctness from students.
type PaperOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type PaperQuestion struct {
	QuestionID uint                `json:"question_id"`
	Type       models.QuestionType `json:"type"`
	TypeLabel  string              `json:"type_label"`
	Content    string              `json:"content"`
	Score      int                 `json:"score"`
	Options    []PaperOption       `json:"options,omitempty"`
}

type PaperAnswer struct {
	QuestionID        uint   `json:"question_id"`
	SelectedOptionID  *uint  `json:"selected_option_id,omitempty"`
	SelectedOptionIDs string `json:"selected_option_ids,omitempty"`
	AnswerText        string `json:"answer_text,omitempty"`
}

type ExamPaper struct {
	ExamID      uint            `json:"exam_id"`
	Name        string          `json:"name"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	TotalPoints int             `json:"total_points"`
	Questions   []PaperQuestion `json:"questions"`
	Answers     []PaperAnswer   `json:"answers,omitempty"`
}

type AutoGradeResult struct {
	ExamID         uint `json:"exam_id"`
	GradedAnswers  int  `json:"graded_answers"`
	GradedStudents int  `json:"graded_students"`
}

type StudentGradeResult struct {
	ExamID    uint    `json:"exam_id"`
	StudentID uint    `json:"student_id"`
	Grade     float64 `json:"grade"`
}

type GradingItem struct {
	QuestionID    uint                    `json:"question_id"`
	Type          models.QuestionType     `json:"type"`
	Content       string                  `json:"content"`
	CorrectAnswer *string                 `json:"correct_answer,omitempty"`
	Options       []models.QuestionOption `json:"options,omitempty"`
	MaxScore      int                     `json:"max_score"`
	Answer        *models.StudentAnswer   `json:"answer,omitempty"`
}

type GradingSheet struct {
	ExamID  uint          `json:"exam_id"`
	Student *models.User  `json:"student"`
	Items   []GradingItem `json:"items"`
	Total   float64       `json:"total"`
	Max     int           `json:"max"`
}

type LogFile struct {
	Date      string `json:"date"`
	Path      string `json:"-"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated"`
	Content   string `json:"content"`
}

type DashboardOverview struct {
	Totals       *repositories.DashboardTotals           `json:"totals"`
	Distribution []repositories.QuestionDistributionData `json:"question_distribution"`
	RecentImport []repositories.RecentImportData         `json:"recent_imports"`
	GeneratedAt  time.Time                               `json:"generated_at"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*models.User, error)
	RegisterTeacher(ctx context.Context, req *RegisterTeacherRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a bearer token to a stored account
	Authenticate(ctx context.Context, token string) (*models.User, error)
	EnsureAdmin(ctx context.Context, account, password string) (*models.User, error)
}

type AccountService interface {
	Create(ctx context.Context, role models.UserRole, req *CreateAccountRequest) (*models.User, error)
	Update(ctx context.Context, role models.UserRole, account string, req *UpdateAccountRequest) (*models.User, error)
	Delete(ctx context.Context, role models.UserRole, account string) error
	Query(ctx context.Context, role models.UserRole, q AccountQuery) ([]*models.User, int64, error)
}

type QuestionBankService interface {
	Create(ctx context.Context, req *QuestionBankRequest, creatorID uint) (*models.QuestionBank, error)
	Rename(ctx context.Context, id uint, req *QuestionBankRequest) (*models.QuestionBank, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.QuestionBankFilters) ([]*models.QuestionBank, int64, error)
	GetDetail(ctx context.Context, id uint) (*QuestionBankDetail, error)
}

type QuestionService interface {
	Create(ctx context.Context, bankID uint, req *CreateQuestionRequest) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error)
	ReplaceOptions(ctx context.Context, id uint, req *ReplaceOptionsRequest) (*models.Question, error)
	Delete(ctx context.Context, id uint) error
}

type ImportService interface {
	Import(ctx context.Context, req *ImportRequest) (*ImportReport, error)
	ListJobs(ctx context.Context, bankID uint, limit, offset int) ([]*models.ImportJob, int64, error)
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, creatorID uint) (*models.Exam, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest) (*models.Exam, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	AssignQuestions(ctx context.Context, id uint, req *AssignQuestionsRequest) (*models.Exam, error)
}

// StudentService covers what a logged-in student does inside an exam window.
type StudentService interface {
	ListActiveExams(ctx context.Context) ([]*models.Exam, error)
	GetPaper(ctx context.Context, examID, studentID uint) (*ExamPaper, error)
	SubmitAnswers(ctx context.Context, examID, studentID uint, req *SubmitAnswersRequest) error
	ListGrades(ctx context.Context, studentID uint) ([]*models.StudentGrade, error)
}

type GradingService interface {
	AutoGradeExam(ctx context.Context, examID, graderID uint) (*AutoGradeResult, error)
	GradeStudent(ctx context.Context, examID, studentID uint, req *GradeStudentRequest, graderID uint) (*StudentGradeResult, error)
	GetGradingSheet(ctx context.Context, examID, studentID uint) (*GradingSheet, error)
}

type ReportService interface {
	ListGrades(ctx context.Context, examID uint, filters repositories.GradeFilters) ([]models.GradeSummary, int64, error)
	ExamReport(ctx context.Context, examID uint) (*models.ExamReport, error)
	ExportGrades(ctx context.Context, examID uint, filters repositories.GradeFilters) ([]byte, string, error)
}

type LogService interface {
	Read(ctx context.Context, date string) (*LogFile, error)
}

type DashboardService interface {
	Overview(ctx context.Context) (*DashboardOverview, error)
}

// ServiceManager owns every service of the process
type ServiceManager interface {
	Auth() AuthService
	Account() AccountService
	QuestionBank() QuestionBankService
	Question() QuestionService
	Import() ImportService
	Exam() ExamService
	Student() StudentService
	Grading() GradingService
	Report() ReportService
	Log() LogService
	Dashboard() DashboardService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
