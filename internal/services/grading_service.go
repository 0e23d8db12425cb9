package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/grading"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	locker    lock.Locker
	cache     *cache.CacheManager
	publisher events.EventPublisher
	recorder  Recorder
	now       func() time.Time
}

func NewGradingService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	locker lock.Locker,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	recorder Recorder,
	now func() time.Time,
) GradingService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		locker:    locker,
		cache:     cacheManager,
		publisher: publisher,
		recorder:  recorder,
		now:       now,
	}
}

// ===== AUTOMATIC GRADING =====

// AutoGradeExam scores every stored answer to the exam's objective questions and
// recomputes each participating student's grade as the sum of their stored scores.
// Running it again on unchanged data produces the same scores.
func (s *gradingService) AutoGradeExam(ctx context.Context, examID, graderID uint) (*AutoGradeResult, error) {
	s.logger.Info("Auto-grading exam", "exam_id", examID, "grader_id", graderID)

	result := &AutoGradeResult{ExamID: examID}
	err := withLock(ctx, s.locker, s.logger, lock.ExamKey(examID), func() error {
		return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if _, err := tx.Exam().GetByID(ctx, nil, examID); err != nil {
				return notFound(err, ErrExamNotFound, "get exam")
			}

			assigned, err := tx.Exam().GetQuestions(ctx, nil, examID)
			if err != nil {
				return fmt.Errorf("failed to load exam questions: %w", err)
			}

			gradedAt := s.now()
			for _, eq := range assigned {
				if eq.Question == nil || !eq.Question.Type.IsObjective() {
					continue
				}
				answers, err := tx.Answer().ListByExamQuestion(ctx, nil, examID, eq.QuestionID)
				if err != nil {
					return fmt.Errorf("failed to load answers: %w", err)
				}
				for _, a := range answers {
					out, ok := grading.ScoreObjective(eq.Question, a, eq.Score)
					if !ok {
						continue
					}
					if err := tx.Answer().UpdateScore(ctx, nil, a.ID, out.Score, &graderID, gradedAt); err != nil {
						return fmt.Errorf("failed to store score: %w", err)
					}
					result.GradedAnswers++
				}
			}

			students, err := tx.Answer().StudentIDsByExam(ctx, nil, examID)
			if err != nil {
				return fmt.Errorf("failed to list participants: %w", err)
			}
			for _, studentID := range students {
				if _, err := recomputeGrade(ctx, tx, studentID, examID); err != nil {
					return err
				}
			}
			result.GradedStudents = len(students)
			return nil
		})
	})
	if err != nil {
		s.logger.Error("Auto-grading failed", "exam_id", examID, "error", err)
		return nil, err
	}

	cache.InvalidateReportCache(ctx, s.cache, examID)
	s.recorder.ObserveGraded("auto", result.GradedAnswers)
	publishEvent(ctx, s.publisher, s.logger, events.EventExamAutoGraded, map[string]interface{}{
		"exam_id":         examID,
		"grader_id":       graderID,
		"graded_answers":  result.GradedAnswers,
		"graded_students": result.GradedStudents,
	})

	s.logger.Info("Exam auto-graded",
		"exam_id", examID,
		"graded_answers", result.GradedAnswers,
		"graded_students", result.GradedStudents)
	return result, nil
}

// ===== MANUAL GRADING =====

// GradeStudent stores teacher-given scores. A question the student skipped gets an
// answer row marked unanswered so the score has somewhere to live.
func (s *gradingService) GradeStudent(ctx context.Context, examID, studentID uint, req *GradeStudentRequest, graderID uint) (*StudentGradeResult, error) {
	s.logger.Info("Grading student", "exam_id", examID, "student_id", studentID, "grader_id", graderID, "count", len(req.Grades))

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get student")
	}
	if student.Role != models.RoleStudent {
		return nil, ErrUserNotFound
	}

	result := &StudentGradeResult{ExamID: examID, StudentID: studentID}
	err = withLock(ctx, s.locker, s.logger, lock.ExamKey(examID), func() error {
		return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if _, err := tx.Exam().GetByID(ctx, nil, examID); err != nil {
				return notFound(err, ErrExamNotFound, "get exam")
			}

			gradedAt := s.now()
			for i, g := range req.Grades {
				field := fmt.Sprintf("grades[%d]", i)
				eq, err := tx.Exam().GetQuestion(ctx, nil, examID, g.QuestionID)
				if err != nil {
					if repositories.IsNotFoundError(err) {
						return NewValidationError(field+".question_id", "question is not part of this exam", g.QuestionID)
					}
					return fmt.Errorf("failed to load exam question: %w", err)
				}
				if g.Score > float64(eq.Score) {
					return NewValidationError(field+".score", fmt.Sprintf("must not exceed %d", eq.Score), g.Score)
				}

				answer, err := tx.Answer().Get(ctx, nil, studentID, examID, g.QuestionID)
				if err != nil {
					if !repositories.IsNotFoundError(err) {
						return fmt.Errorf("failed to load answer: %w", err)
					}
					answer = &models.StudentAnswer{
						StudentID:  studentID,
						ExamID:     examID,
						QuestionID: g.QuestionID,
						AnswerText: models.UnansweredText,
					}
					if err := tx.Answer().Create(ctx, nil, answer); err != nil {
						return fmt.Errorf("failed to create answer: %w", err)
					}
				}

				if err := tx.Answer().UpdateScore(ctx, nil, answer.ID, g.Score, &graderID, gradedAt); err != nil {
					return fmt.Errorf("failed to store score: %w", err)
				}
			}

			total, err := recomputeGrade(ctx, tx, studentID, examID)
			if err != nil {
				return err
			}
			result.Grade = total
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateReportCache(ctx, s.cache, examID)
	s.recorder.ObserveGraded("manual", len(req.Grades))
	publishEvent(ctx, s.publisher, s.logger, events.EventStudentGraded, map[string]interface{}{
		"exam_id":    examID,
		"student_id": studentID,
		"grader_id":  graderID,
		"grade":      result.Grade,
	})

	s.logger.Info("Student graded", "exam_id", examID, "student_id", studentID, "grade", result.Grade)
	return result, nil
}

// GetGradingSheet lists every question of the exam next to the student's answer.
func (s *gradingService) GetGradingSheet(ctx context.Context, examID, studentID uint) (*GradingSheet, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get student")
	}

	answers, err := s.repo.Answer().ListByStudentExam(ctx, nil, studentID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	byQuestion := make(map[uint]*models.StudentAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	sheet := &GradingSheet{
		ExamID:  examID,
		Student: student,
		Items:   make([]GradingItem, 0, len(exam.Questions)),
		Max:     exam.TotalPoints,
	}
	for _, eq := range exam.Questions {
		if eq.Question == nil {
			continue
		}
		item := GradingItem{
			QuestionID:    eq.QuestionID,
			Type:          eq.Question.Type,
			Content:       eq.Question.Content,
			CorrectAnswer: eq.Question.Answer,
			Options:       eq.Question.Options,
			MaxScore:      eq.Score,
		}
		if a, ok := byQuestion[eq.QuestionID]; ok {
			a.Question = nil
			item.Answer = a
			sheet.Total += a.ScoreValue()
		}
		sheet.Items = append(sheet.Items, item)
	}
	return sheet, nil
}
