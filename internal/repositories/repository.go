package repositories

import "context"

// Repository aggregates every sub-repository of the service.
type Repository interface {
	// Accounts
	User() UserRepository

	// Question domain
	QuestionBank() QuestionBankRepository
	Question() QuestionRepository
	ImportJob() ImportJobRepository

	// Exam domain
	Exam() ExamRepository
	Answer() AnswerRepository
	Grade() GradeRepository

	// Admin overview
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager owns the repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
