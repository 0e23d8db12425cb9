package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type studentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	locker    lock.Locker
	cache     *cache.CacheManager
	publisher events.EventPublisher
	now       func() time.Time
}

func NewStudentService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	locker lock.Locker,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	now func() time.Time,
) StudentService {
	if now == nil {
		now = time.Now
	}
	return &studentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		locker:    locker,
		cache:     cacheManager,
		publisher: publisher,
		now:       now,
	}
}

func (s *studentService) ListActiveExams(ctx context.Context) ([]*models.Exam, error) {
	now := s.now()
	exams, _, err := s.repo.Exam().List(ctx, nil, repositories.ExamFilters{
		ActiveAt:  &now,
		SortBy:    "end_time",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active exams: %w", err)
	}
	return exams, nil
}

// GetPaper returns the exam's questions without correctness flags, plus whatever
// the student has already answered. Only the shared question part is cached.
func (s *studentService) GetPaper(ctx context.Context, examID, studentID uint) (*ExamPaper, error) {
	var paper ExamPaper
	err := s.cache.Exam.CacheOrExecute(ctx, cache.ExamPaperKey(examID), &paper, func() (interface{}, error) {
		return s.buildPaper(ctx, examID)
	})
	if err != nil {
		return nil, err
	}

	if !(&models.Exam{StartTime: paper.StartTime, EndTime: paper.EndTime}).IsActiveAt(s.now()) {
		return nil, ErrExamNotActive
	}

	answers, err := s.repo.Answer().ListByStudentExam(ctx, nil, studentID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	paper.Answers = make([]PaperAnswer, 0, len(answers))
	for _, a := range answers {
		paper.Answers = append(paper.Answers, PaperAnswer{
			QuestionID:        a.QuestionID,
			SelectedOptionID:  a.SelectedOptionID,
			SelectedOptionIDs: a.SelectedOptionIDs,
			AnswerText:        a.AnswerText,
		})
	}
	return &paper, nil
}

func (s *studentService) buildPaper(ctx context.Context, examID uint) (*ExamPaper, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}

	paper := &ExamPaper{
		ExamID:      exam.ID,
		Name:        exam.Name,
		StartTime:   exam.StartTime,
		EndTime:     exam.EndTime,
		TotalPoints: exam.TotalPoints,
		Questions:   make([]PaperQuestion, 0, len(exam.Questions)),
	}
	for _, eq := range exam.Questions {
		if eq.Question == nil {
			continue
		}
		pq := PaperQuestion{
			QuestionID: eq.QuestionID,
			Type:       eq.Question.Type,
			TypeLabel:  eq.Question.Type.Label(),
			Content:    eq.Question.Content,
			Score:      eq.Score,
		}
		for _, o := range eq.Question.Options {
			pq.Options = append(pq.Options, PaperOption{ID: o.ID, Text: o.Text})
		}
		paper.Questions = append(paper.Questions, pq)
	}
	return paper, nil
}

// SubmitAnswers stores the answers while the exam is open. Resubmitting replaces
// the previous answer and clears its score. Submissions and grading runs of one
// exam are serialized by the exam lock.
func (s *studentService) SubmitAnswers(ctx context.Context, examID, studentID uint, req *SubmitAnswersRequest) error {
	s.logger.Info("Submitting answers", "exam_id", examID, "student_id", studentID, "count", len(req.Answers))

	if err := validate(s.validator, req); err != nil {
		return err
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		return notFound(err, ErrExamNotFound, "get exam")
	}
	if !exam.IsActiveAt(s.now()) {
		return ErrExamNotActive
	}

	assigned, err := s.repo.Exam().GetQuestions(ctx, nil, examID)
	if err != nil {
		return fmt.Errorf("failed to load exam questions: %w", err)
	}
	questions := make(map[uint]*models.Question, len(assigned))
	for _, eq := range assigned {
		questions[eq.QuestionID] = eq.Question
	}

	answers := make([]*models.StudentAnswer, len(req.Answers))
	for i, a := range req.Answers {
		q, ok := questions[a.QuestionID]
		if !ok || q == nil {
			return NewValidationError(fmt.Sprintf("answers[%d].question_id", i), "question is not part of this exam", a.QuestionID)
		}
		answer, err := buildAnswer(i, q, a)
		if err != nil {
			return err
		}
		answer.StudentID = studentID
		answer.ExamID = examID
		answers[i] = answer
	}

	var regraded bool
	err = withLock(ctx, s.locker, s.logger, lock.ExamKey(examID), func() error {
		return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			scored := false
			for _, a := range answers {
				prev, err := tx.Answer().Get(ctx, nil, studentID, examID, a.QuestionID)
				switch {
				case err == nil:
					scored = scored || prev.Score != nil
				case !repositories.IsNotFoundError(err):
					return fmt.Errorf("failed to load answer: %w", err)
				}
				if err := tx.Answer().Upsert(ctx, nil, a); err != nil {
					return fmt.Errorf("failed to store answer: %w", err)
				}
			}

			// A replaced answer loses its score, so an existing grade has to follow.
			if !scored {
				_, err := tx.Grade().Get(ctx, nil, studentID, examID)
				if err != nil && !repositories.IsNotFoundError(err) {
					return fmt.Errorf("failed to load grade: %w", err)
				}
				scored = err == nil
			}
			if !scored {
				return nil
			}
			if _, err := recomputeGrade(ctx, tx, studentID, examID); err != nil {
				return err
			}
			regraded = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if regraded {
		cache.InvalidateReportCache(ctx, s.cache, examID)
	}

	publishEvent(ctx, s.publisher, s.logger, events.EventAnswerSubmitted, map[string]interface{}{
		"exam_id":    examID,
		"student_id": studentID,
		"answers":    len(answers),
	})
	s.logger.Info("Answers submitted", "exam_id", examID, "student_id", studentID, "count", len(answers))
	return nil
}

// buildAnswer reads the request field the question type uses.
func buildAnswer(i int, q *models.Question, req validator.AnswerRequest) (*models.StudentAnswer, error) {
	answer := &models.StudentAnswer{QuestionID: q.ID}

	switch q.Type {
	case models.SingleChoice, models.TrueFalse:
		if req.OptionID == nil {
			return nil, NewValidationError(fmt.Sprintf("answers[%d].option_id", i), "is required", nil)
		}
		if !q.HasOption(*req.OptionID) {
			return nil, NewValidationError(fmt.Sprintf("answers[%d].option_id", i), "is not an option of the question", *req.OptionID)
		}
		id := *req.OptionID
		answer.SelectedOptionID = &id
	case models.MultipleChoice:
		if len(req.OptionIDs) == 0 {
			return nil, NewValidationError(fmt.Sprintf("answers[%d].option_ids", i), "is required", nil)
		}
		for _, id := range req.OptionIDs {
			if !q.HasOption(id) {
				return nil, NewValidationError(fmt.Sprintf("answers[%d].option_ids", i), "is not an option of the question", id)
			}
		}
		answer.SelectedOptionIDs = models.JoinOptionIDs(req.OptionIDs)
	default:
		answer.AnswerText = req.Text
	}
	return answer, nil
}

func (s *studentService) ListGrades(ctx context.Context, studentID uint) ([]*models.StudentGrade, error) {
	grades, err := s.repo.Grade().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return grades, nil
}
