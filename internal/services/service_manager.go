package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/importer"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/storage"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

// Dependencies holds everything the services are built from. Only Repo, Logger and
// Validator are required; the rest fall back to local or no-op implementations.
type Dependencies struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator

	Cache      *cache.CacheManager
	Locker     lock.Locker
	Events     events.EventPublisher
	Storage    storage.Provider
	Structurer importer.Structurer
	Metrics    Recorder

	Auth   AuthConfig
	Import ImportConfig
	LogDir string

	Now func() time.Time
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps Dependencies

	// Service instances
	authService         AuthService
	accountService      AccountService
	questionBankService QuestionBankService
	questionService     QuestionService
	importService       ImportService
	examService         ExamService
	studentService      StudentService
	gradingService      GradingService
	reportService       ReportService
	logService          LogService
	dashboardService    DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewCacheManager(nil)
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker()
	}
	if deps.Events == nil {
		deps.Events = events.NewMockEventPublisher(deps.Logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &serviceManager{deps: deps}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil {
		return fmt.Errorf("failed to initialize services: %w", ErrServiceNotAvailable)
	}

	d := sm.deps
	d.Logger.Info("Initializing service manager")

	sm.authService = NewAuthService(d.Repo, d.Logger, d.Validator, d.Cache, d.Auth)
	sm.accountService = NewAccountService(d.Repo, d.Logger, d.Validator)
	sm.questionBankService = NewQuestionBankService(d.Repo, d.Logger, d.Validator, d.Locker)
	sm.questionService = NewQuestionService(d.Repo, d.Logger, d.Validator, d.Locker, d.Cache)
	sm.importService = NewImportService(d.Repo, d.Logger, d.Locker, d.Events, d.Storage, d.Structurer, d.Metrics, d.Import)
	sm.examService = NewExamService(d.Repo, d.Logger, d.Validator, d.Locker, d.Cache)
	sm.studentService = NewStudentService(d.Repo, d.Logger, d.Validator, d.Locker, d.Cache, d.Events, d.Now)
	sm.gradingService = NewGradingService(d.Repo, d.Logger, d.Validator, d.Locker, d.Cache, d.Events, d.Metrics, d.Now)
	sm.reportService = NewReportService(d.Repo, d.Logger, d.Cache, d.Now)
	sm.logService = NewLogService(d.LogDir, d.Logger, d.Now)
	sm.dashboardService = NewDashboardService(d.Repo, d.Logger, d.Now)

	if d.Structurer == nil {
		d.Logger.Warn("Question recognition is not configured, imports are disabled")
	}

	sm.initialized = true
	d.Logger.Info("Service manager initialized successfully")
	return nil
}

// Service getters

func (sm *serviceManager) ready() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.authService
}

func (sm *serviceManager) Account() AccountService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.accountService
}

func (sm *serviceManager) QuestionBank() QuestionBankService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.questionBankService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.questionService
}

func (sm *serviceManager) Import() ImportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.importService
}

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.examService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.studentService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.gradingService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.reportService
}

func (sm *serviceManager) Log() LogService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.logService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.dashboardService
}

// Health and lifecycle

// HealthCheck fails when the database is unreachable. A missing cache is reported
// in the log only, since every cached path falls back to the database.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if err := sm.deps.Cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		sm.deps.Logger.Warn("Cache health check failed", "error", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if err := sm.deps.Events.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return nil
}
