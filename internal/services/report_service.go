package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/grading"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

const gradeSheetName = "成绩"

var gradeSheetHeader = []interface{}{"学号", "姓名", "班级", "成绩"}

type gradePage struct {
	Items []models.GradeSummary `json:"items"`
	Total int64                 `json:"total"`
}

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cache  *cache.CacheManager
	now    func() time.Time
}

func NewReportService(repo repositories.Repository, logger *slog.Logger, cacheManager *cache.CacheManager, now func() time.Time) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{repo: repo, logger: logger, cache: cacheManager, now: now}
}

func gradesKey(examID uint, f repositories.GradeFilters) string {
	return fmt.Sprintf("exam:%d:grades:%s:%s:%s:%d:%d", examID, f.StudentNumber, f.Name, f.Class, f.Limit, f.Offset)
}

func (s *reportService) ListGrades(ctx context.Context, examID uint, filters repositories.GradeFilters) ([]models.GradeSummary, int64, error) {
	if _, err := s.repo.Exam().GetByID(ctx, nil, examID); err != nil {
		return nil, 0, notFound(err, ErrExamNotFound, "get exam")
	}

	var page gradePage
	err := s.cache.Report.CacheOrExecute(ctx, gradesKey(examID, filters), &page, func() (interface{}, error) {
		items, total, err := s.repo.Grade().ListByExam(ctx, nil, examID, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list grades: %w", err)
		}
		return gradePage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	if page.Items == nil {
		page.Items = []models.GradeSummary{}
	}
	return page.Items, page.Total, nil
}

// ExamReport computes per-question statistics. An objective answer counts as
// correct when it matches the correct option set; any other answer when it holds
// the full points of the question.
func (s *reportService) ExamReport(ctx context.Context, examID uint) (*models.ExamReport, error) {
	var report models.ExamReport
	err := s.cache.Report.CacheOrExecute(ctx, cache.ExamReportKey(examID), &report, func() (interface{}, error) {
		return s.buildReport(ctx, examID)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *reportService) buildReport(ctx context.Context, examID uint) (*models.ExamReport, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}

	stats, err := s.repo.Answer().StatsByExam(ctx, nil, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer statistics: %w", err)
	}
	average, students, err := s.repo.Grade().AverageByExam(ctx, nil, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grade average: %w", err)
	}

	report := &models.ExamReport{
		ExamID:      exam.ID,
		ExamName:    exam.Name,
		Students:    int(students),
		AverageMark: round2(average),
		Questions:   make([]models.QuestionReport, 0, len(exam.Questions)),
		GeneratedAt: s.now(),
	}

	for _, eq := range exam.Questions {
		if eq.Question == nil {
			continue
		}
		qr := models.QuestionReport{
			QuestionID: eq.QuestionID,
			Type:       eq.Question.Type,
			Content:    eq.Question.Content,
			Score:      eq.Score,
		}
		if st, ok := stats[eq.QuestionID]; ok {
			qr.Attempts = int(st.Attempts)
			qr.AverageScore = round2(st.AverageScore)
		}

		if qr.Attempts > 0 {
			answers, err := s.repo.Answer().ListByExamQuestion(ctx, nil, examID, eq.QuestionID)
			if err != nil {
				return nil, fmt.Errorf("failed to load answers: %w", err)
			}
			for _, a := range answers {
				if answerCorrect(eq, a) {
					qr.CorrectCount++
				}
			}
			qr.CorrectRate = round2(float64(qr.CorrectCount) / float64(qr.Attempts) * 100)
		}
		report.Questions = append(report.Questions, qr)
	}

	s.logger.Info("Exam report generated", "exam_id", examID, "students", report.Students, "questions", len(report.Questions))
	return report, nil
}

func answerCorrect(eq models.ExamQuestion, a *models.StudentAnswer) bool {
	if eq.Question.Type.IsObjective() {
		return grading.IsCorrect(eq.Question, a)
	}
	return a.Score != nil && *a.Score >= float64(eq.Score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ExportGrades renders the filtered grade list as an xlsx workbook.
func (s *reportService) ExportGrades(ctx context.Context, examID uint, filters repositories.GradeFilters) ([]byte, string, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		return nil, "", notFound(err, ErrExamNotFound, "get exam")
	}

	filters.Limit, filters.Offset = 0, 0
	grades, _, err := s.repo.Grade().ListByExam(ctx, nil, examID, filters)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list grades: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), gradeSheetName); err != nil {
		return nil, "", fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(gradeSheetName, "A1", &gradeSheetHeader); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}
	for i, g := range grades {
		class := ""
		if g.Class != nil {
			class = *g.Class
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		row := []interface{}{g.StudentNumber, g.Name, class, g.Grade}
		if err := f.SetSheetRow(gradeSheetName, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Grades exported", "exam_id", examID, "rows", len(grades))
	return buf.Bytes(), fmt.Sprintf("exam_%d_%s_grades.xlsx", exam.ID, s.now().Format("20060102")), nil
}
