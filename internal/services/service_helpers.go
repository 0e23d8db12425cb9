package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// Recorder receives import and grading observations.
type Recorder interface {
	ObserveImportBlock(status string)
	ObserveImport(status string)
	ObserveGraded(mode string, n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveImportBlock(string) {}
func (nopRecorder) ObserveImport(string)      {}
func (nopRecorder) ObserveGraded(string, int) {}

// withLock runs fn while holding key. A failed release is logged only.
func withLock(ctx context.Context, locker lock.Locker, logger *slog.Logger, key string, fn func() error) error {
	unlock, err := locker.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	defer func() {
		if err := unlock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release lock", "key", key, "error", err)
		}
	}()
	return fn()
}

// recomputeGrade sets the student's grade to the sum of their stored answer scores.
func recomputeGrade(ctx context.Context, tx repositories.Repository, studentID, examID uint) (float64, error) {
	total, err := tx.Answer().SumScores(ctx, nil, studentID, examID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum scores: %w", err)
	}
	if err := tx.Grade().Upsert(ctx, nil, studentID, examID, total); err != nil {
		return 0, fmt.Errorf("failed to store grade: %w", err)
	}
	return total, nil
}

// publishEvent is fire-and-forget: a publish error is logged and dropped.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		logger.Warn("Failed to publish event", "event_type", eventType, "error", err)
	}
}

// pageToOffset converts a 1-based page into limit and offset.
func pageToOffset(page, size int) (int, int) {
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}
