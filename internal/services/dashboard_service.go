package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

const recentImportLimit = 10

type dashboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewDashboardService(repo repositories.Repository, logger *slog.Logger, now func() time.Time) DashboardService {
	if now == nil {
		now = time.Now
	}
	return &dashboardService{repo: repo, logger: logger, now: now}
}

// Overview gathers the admin counters, the question type distribution and the
// latest imports.
func (s *dashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	totals, err := s.repo.Dashboard().GetTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard totals: %w", err)
	}

	distribution, err := s.repo.Dashboard().GetQuestionDistribution(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get question distribution: %w", err)
	}

	recent, err := s.repo.Dashboard().GetRecentImports(ctx, nil, recentImportLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent imports: %w", err)
	}

	s.logger.Debug("Dashboard overview built",
		"questions", totals.Questions,
		"exams", totals.Exams,
		"recent_imports", len(recent))

	return &DashboardOverview{
		Totals:       totals,
		Distribution: distribution,
		RecentImport: recent,
		GeneratedAt:  s.now(),
	}, nil
}
