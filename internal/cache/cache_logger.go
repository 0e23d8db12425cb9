package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// Key builders shared by readers and invalidators.

func ExamPaperKey(examID uint) string { return fmt.Sprintf("paper:%d", examID) }

func ExamReportKey(examID uint) string { return fmt.Sprintf("exam:%d:summary", examID) }

func RevokedTokenKey(tokenID string) string { return "revoked:" + tokenID }

// SafeInvalidatePattern invalidates a pattern, logging instead of failing.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateExamCache drops the cached paper of an exam after its questions change.
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID uint) {
	SafeDelete(ctx, cm.Exam, ExamPaperKey(examID))
	InvalidateReportCache(ctx, cm, examID)
}

// InvalidateReportCache drops every cached grade list and report of an exam.
func InvalidateReportCache(ctx context.Context, cm *CacheManager, examID uint) {
	SafeInvalidatePattern(ctx, cm.Report, fmt.Sprintf("exam:%d:*", examID))
}
