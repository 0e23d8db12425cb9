package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

func (e *testEnv) banks() QuestionBankService {
	return NewQuestionBankService(e.repo, e.logger, e.validator, e.locker)
}

func (e *testEnv) questions() QuestionService {
	return NewQuestionService(e.repo, e.logger, e.validator, e.locker, e.cache)
}

func TestQuestionBankService(t *testing.T) {
	env := newTestEnv(t)
	svc := env.banks()
	ctx := context.Background()

	math, err := svc.Create(ctx, &QuestionBankRequest{Name: "数学"}, 2)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	english, err := svc.Create(ctx, &QuestionBankRequest{Name: "英语"}, 2)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name:    "duplicate name",
			run:     func() error { _, err := svc.Create(ctx, &QuestionBankRequest{Name: "数学"}, 2); return err },
			wantErr: ErrQuestionBankDuplicateName,
		},
		{
			name:    "blank name",
			run:     func() error { _, err := svc.Create(ctx, &QuestionBankRequest{}, 2); return err },
			wantErr: ErrValidationFailed,
		},
		{
			name:    "rename onto another bank",
			run:     func() error { _, err := svc.Rename(ctx, english.ID, &QuestionBankRequest{Name: "数学"}); return err },
			wantErr: ErrQuestionBankDuplicateName,
		},
		{
			name: "rename to its own name",
			run:  func() error { _, err := svc.Rename(ctx, math.ID, &QuestionBankRequest{Name: "数学"}); return err },
		},
		{
			name:    "rename unknown bank",
			run:     func() error { _, err := svc.Rename(ctx, 999, &QuestionBankRequest{Name: "物理"}); return err },
			wantErr: ErrQuestionBankNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := env.questions().Create(ctx, math.ID, &CreateQuestionRequest{Type: models.Subjective, Content: "证明"}); err != nil {
		t.Fatalf("Question Create() error = %v", err)
	}
	detail, err := svc.GetDetail(ctx, math.ID)
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}
	if detail.QuestionCount != 1 || len(detail.Questions) != 1 {
		t.Errorf("detail = %d questions", detail.QuestionCount)
	}

	if err := svc.Delete(ctx, math.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n, _ := env.repo.Question().CountByBank(ctx, nil, math.ID); n != 0 {
		t.Errorf("deleting the bank left %d questions", n)
	}
	if _, err := svc.GetDetail(ctx, math.ID); !errors.Is(err, ErrQuestionBankNotFound) {
		t.Errorf("GetDetail() after delete error = %v", err)
	}
}

func TestQuestionService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bank := &models.QuestionBank{Name: "物理"}
	mustDo(t, env.repo.QuestionBank().Create(ctx, nil, bank))

	opts := func(correct ...bool) []validator.OptionRequest {
		out := make([]validator.OptionRequest, len(correct))
		for i, c := range correct {
			out[i] = validator.OptionRequest{Text: string(rune('A' + i)), IsCorrect: c}
		}
		return out
	}

	tests := []struct {
		name    string
		bankID  uint
		req     *CreateQuestionRequest
		wantErr error
	}{
		{name: "single choice", bankID: bank.ID, req: &CreateQuestionRequest{Type: models.SingleChoice, Content: "q", Options: opts(false, true)}},
		{name: "multiple choice", bankID: bank.ID, req: &CreateQuestionRequest{Type: models.MultipleChoice, Content: "q", Options: opts(true, true, false)}},
		{name: "subjective drops options", bankID: bank.ID, req: &CreateQuestionRequest{Type: models.Subjective, Content: "q", Options: opts(true)}},
		{name: "single choice with two correct", bankID: bank.ID, req: &CreateQuestionRequest{Type: models.SingleChoice, Content: "q", Options: opts(true, true)}, wantErr: ErrValidationFailed},
		{name: "objective without options", bankID: bank.ID, req: &CreateQuestionRequest{Type: models.TrueFalse, Content: "q"}, wantErr: ErrValidationFailed},
		{name: "true false with three options", bankID: bank.ID, req: &CreateQuestionRequest{Type: models.TrueFalse, Content: "q", Options: opts(true, false, false)}, wantErr: ErrValidationFailed},
		{name: "unknown type", bankID: bank.ID, req: &CreateQuestionRequest{Type: "essay", Content: "q"}, wantErr: ErrValidationFailed},
		{name: "unknown bank", bankID: 404, req: &CreateQuestionRequest{Type: models.Subjective, Content: "q"}, wantErr: ErrQuestionBankNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := env.questions().Create(ctx, tt.bankID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && !q.Type.IsObjective() && len(q.Options) != 0 {
				t.Errorf("%s question kept %d options", q.Type, len(q.Options))
			}
		})
	}
}

func TestQuestionService_UpdateAndOptions(t *testing.T) {
	env := newTestEnv(t)
	f := env.seedExam(t)
	ctx := context.Background()
	svc := env.questions()

	paperKey := "exam:" + cache.ExamPaperKey(f.exam.ID)
	if _, err := env.students().GetPaper(ctx, f.exam.ID, f.student.ID); err != nil {
		t.Fatalf("GetPaper() error = %v", err)
	}
	if !env.redis.Exists(paperKey) {
		t.Fatal("paper was not cached")
	}

	// The multiple choice question has two correct options.
	single := models.SingleChoice
	if _, err := svc.Update(ctx, f.multiple.ID, &UpdateQuestionRequest{Type: &single}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Update() type change error = %v, want ErrValidationFailed", err)
	}

	content := "2+3=?"
	q, err := svc.Update(ctx, f.single.ID, &UpdateQuestionRequest{Content: &content})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if q.Content != content {
		t.Errorf("content = %q", q.Content)
	}
	if env.redis.Exists(paperKey) {
		t.Error("cached paper survived the question update")
	}

	q, err = svc.ReplaceOptions(ctx, f.single.ID, &ReplaceOptionsRequest{Options: []validator.OptionRequest{
		{Text: "4"}, {Text: "5", IsCorrect: true}, {Text: "6"},
	}})
	if err != nil {
		t.Fatalf("ReplaceOptions() error = %v", err)
	}
	if len(q.Options) != 3 || !q.Options[1].IsCorrect || q.Options[2].Position != 2 {
		t.Errorf("options = %+v", q.Options)
	}

	if _, err := svc.ReplaceOptions(ctx, f.single.ID, &ReplaceOptionsRequest{}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("ReplaceOptions() with no options error = %v", err)
	}

	if err := svc.Delete(ctx, f.subjective.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, f.subjective.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("GetByID() after delete error = %v", err)
	}
}

func TestQuestionService_EditsDropCachedReports(t *testing.T) {
	content := "2+3=?"
	tests := []struct {
		name string
		edit func(ctx context.Context, svc QuestionService, f *examFixture) error
	}{
		{
			name: "update",
			edit: func(ctx context.Context, svc QuestionService, f *examFixture) error {
				_, err := svc.Update(ctx, f.single.ID, &UpdateQuestionRequest{Content: &content})
				return err
			},
		},
		{
			name: "replace options",
			edit: func(ctx context.Context, svc QuestionService, f *examFixture) error {
				_, err := svc.ReplaceOptions(ctx, f.single.ID, &ReplaceOptionsRequest{Options: []validator.OptionRequest{
					{Text: "4"}, {Text: "5", IsCorrect: true},
				}})
				return err
			},
		},
		{
			name: "delete",
			edit: func(ctx context.Context, svc QuestionService, f *examFixture) error {
				return svc.Delete(ctx, f.subjective.ID)
			},
		},
	}

	cachedReports := func(env *testEnv) []string {
		var keys []string
		for _, k := range env.redis.Keys() {
			if strings.HasPrefix(k, "report:exam:") {
				keys = append(keys, k)
			}
		}
		return keys
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			f := gradedExam(t, env)
			ctx := context.Background()

			if _, err := env.reports().ExamReport(ctx, f.exam.ID); err != nil {
				t.Fatalf("ExamReport() error = %v", err)
			}
			if _, _, err := env.reports().ListGrades(ctx, f.exam.ID, repositories.GradeFilters{Limit: 20}); err != nil {
				t.Fatalf("ListGrades() error = %v", err)
			}
			if n := len(cachedReports(env)); n != 2 {
				t.Fatalf("cached report entries = %d, want 2", n)
			}

			if err := tt.edit(ctx, env.questions(), f); err != nil {
				t.Fatalf("edit error = %v", err)
			}
			if keys := cachedReports(env); len(keys) != 0 {
				t.Errorf("cached reports survived the edit: %v", keys)
			}
		})
	}
}
