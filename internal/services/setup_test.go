package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type testEnv struct {
	repo      *fakeRepo
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	redis     *miniredis.Miniredis
	locker    lock.Locker
	events    *events.MockEventPublisher
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		repo:      newFakeRepo(),
		logger:    logger,
		validator: validator.New(),
		cache:     cache.NewCacheManager(client),
		redis:     mr,
		locker:    lock.NewLocalLocker(),
		events:    events.NewMockEventPublisher(logger),
		now:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local),
	}
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) students() StudentService {
	return NewStudentService(e.repo, e.logger, e.validator, e.locker, e.cache, e.events, e.clock)
}

func (e *testEnv) grading(rec Recorder) GradingService {
	return NewGradingService(e.repo, e.logger, e.validator, e.locker, e.cache, e.events, rec, e.clock)
}

func (e *testEnv) eventTypes() []events.EventType {
	var out []events.EventType
	for _, ev := range e.events.GetPublishedEvents() {
		out = append(out, ev.Type)
	}
	return out
}

// examFixture is one bank with one question of each kind, assigned to an exam
// that is open at env.now.
type examFixture struct {
	bank       *models.QuestionBank
	exam       *models.Exam
	single     *models.Question // options: 2, 4 (correct)
	multiple   *models.Question // options: 2 (correct), 4 (correct), 5
	trueFalse  *models.Question // 对 (correct), 错
	subjective *models.Question
	student    *models.User
	other      *models.User
}

func option(text string, correct bool) models.QuestionOption {
	return models.QuestionOption{Text: text, IsCorrect: correct}
}

func (e *testEnv) seedExam(t *testing.T) *examFixture {
	t.Helper()
	ctx := context.Background()
	f := &examFixture{}

	f.bank = &models.QuestionBank{Name: "数学"}
	mustDo(t, e.repo.QuestionBank().Create(ctx, nil, f.bank))

	answer := "B"
	f.single = &models.Question{BankID: f.bank.ID, Type: models.SingleChoice, Content: "2+2=?", Answer: &answer,
		Options: []models.QuestionOption{option("2", false), option("4", true)}}
	f.multiple = &models.Question{BankID: f.bank.ID, Type: models.MultipleChoice, Content: "偶数有哪些", Answer: &answer,
		Options: []models.QuestionOption{option("2", true), option("4", true), option("5", false)}}
	f.trueFalse = &models.Question{BankID: f.bank.ID, Type: models.TrueFalse, Content: "地球是圆的", Answer: &answer,
		Options: []models.QuestionOption{option(models.TrueLabel, true), option(models.FalseLabel, false)}}
	f.subjective = &models.Question{BankID: f.bank.ID, Type: models.Subjective, Content: "论述勾股定理"}
	for _, q := range []*models.Question{f.single, f.multiple, f.trueFalse, f.subjective} {
		mustDo(t, e.repo.Question().Create(ctx, nil, q))
	}

	f.exam = &models.Exam{
		Name:      "期中考试",
		BankID:    f.bank.ID,
		StartTime: e.now.Add(-time.Hour),
		EndTime:   e.now.Add(time.Hour),
	}
	mustDo(t, e.repo.Exam().Create(ctx, nil, f.exam))
	mustDo(t, e.repo.Exam().ReplaceQuestions(ctx, nil, f.exam.ID, []models.ExamQuestion{
		{QuestionID: f.single.ID, Score: 10},
		{QuestionID: f.multiple.ID, Score: 20},
		{QuestionID: f.trueFalse.ID, Score: 5},
		{QuestionID: f.subjective.ID, Score: 30},
	}))

	class := "一班"
	f.student = &models.User{Role: models.RoleStudent, Account: "2025001", FullName: "张三", Class: &class}
	f.other = &models.User{Role: models.RoleStudent, Account: "2025002", FullName: "李四", Class: &class}
	mustDo(t, e.repo.User().Create(ctx, nil, f.student))
	mustDo(t, e.repo.User().Create(ctx, nil, f.other))
	return f
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}

func uintPtr(v uint) *uint { return &v }
