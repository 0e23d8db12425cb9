package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// fakeStore is an in-memory stand-in for the postgres repositories.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint

	users     map[uint]*models.User
	banks     map[uint]*models.QuestionBank
	questions map[uint]*models.Question
	jobs      map[uint]*models.ImportJob
	exams     map[uint]*models.Exam
	assigned  map[uint][]models.ExamQuestion // by exam id
	answers   map[uint]*models.StudentAnswer
	grades    map[[2]uint]*models.StudentGrade // (student, exam)

	failCreateBatch error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{s: &fakeStore{
		users:     map[uint]*models.User{},
		banks:     map[uint]*models.QuestionBank{},
		questions: map[uint]*models.Question{},
		jobs:      map[uint]*models.ImportJob{},
		exams:     map[uint]*models.Exam{},
		assigned:  map[uint][]models.ExamQuestion{},
		answers:   map[uint]*models.StudentAnswer{},
		grades:    map[[2]uint]*models.StudentGrade{},
	}}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func missing(op string) error {
	return fmt.Errorf("%s failed: %w", op, gorm.ErrRecordNotFound)
}

func cloneQuestion(q *models.Question) *models.Question {
	c := *q
	c.Options = append([]models.QuestionOption(nil), q.Options...)
	return &c
}

func cloneAnswer(a *models.StudentAnswer) *models.StudentAnswer {
	c := *a
	if a.Score != nil {
		v := *a.Score
		c.Score = &v
	}
	return &c
}

type fakeRepo struct{ s *fakeStore }

func (r *fakeRepo) User() repositories.UserRepository                 { return fakeUsers{r.s} }
func (r *fakeRepo) QuestionBank() repositories.QuestionBankRepository { return fakeBanks{r.s} }
func (r *fakeRepo) Question() repositories.QuestionRepository         { return fakeQuestions{r.s} }
func (r *fakeRepo) ImportJob() repositories.ImportJobRepository       { return fakeJobs{r.s} }
func (r *fakeRepo) Exam() repositories.ExamRepository                 { return fakeExams{r.s} }
func (r *fakeRepo) Answer() repositories.AnswerRepository             { return fakeAnswers{r.s} }
func (r *fakeRepo) Grade() repositories.GradeRepository               { return fakeGrades{r.s} }
func (r *fakeRepo) Dashboard() repositories.DashboardRepository       { return fakeDashboard{r.s} }

func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

// ===== USERS =====

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Role == user.Role && u.Account == user.Account {
			return fmt.Errorf("create user failed: %w", gorm.ErrDuplicatedKey)
		}
	}
	user.ID = f.s.id()
	c := *user
	f.s.users[user.ID] = &c
	return nil
}

func (f fakeUsers) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, missing("get user by id")
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) GetByAccount(ctx context.Context, tx *gorm.DB, role models.UserRole, account string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Role == role && u.Account == account {
			c := *u
			return &c, nil
		}
	}
	return nil, missing("get user by account")
}

func (f fakeUsers) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			c := *u
			return &c, nil
		}
	}
	return nil, missing("get user by external id")
}

func (f fakeUsers) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[user.ID]; !ok {
		return missing("update user")
	}
	c := *user
	f.s.users[user.ID] = &c
	return nil
}

func (f fakeUsers) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[id]; !ok {
		return missing("delete user")
	}
	delete(f.s.users, id)
	return nil
}

func (f fakeUsers) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.User
	for _, u := range f.s.users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		if filters.Class != nil && (u.Class == nil || *u.Class != *filters.Class) {
			continue
		}
		if filters.Query != "" && !strings.Contains(u.Account, filters.Query) && !strings.Contains(u.FullName, filters.Query) {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, int64(len(out)), nil
}

func (f fakeUsers) ExistsByAccount(ctx context.Context, tx *gorm.DB, role models.UserRole, account string, excludeID *uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Role == role && u.Account == account && (excludeID == nil || u.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) CountByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, u := range f.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ===== BANKS =====

type fakeBanks struct{ s *fakeStore }

func (f fakeBanks) Create(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	bank.ID = f.s.id()
	c := *bank
	f.s.banks[bank.ID] = &c
	return nil
}

func (f fakeBanks) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionBank, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.banks[id]
	if !ok {
		return nil, missing("get question bank")
	}
	c := *b
	return &c, nil
}

func (f fakeBanks) Update(ctx context.Context, tx *gorm.DB, bank *models.QuestionBank) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.banks[bank.ID]; !ok {
		return missing("update question bank")
	}
	c := *bank
	f.s.banks[bank.ID] = &c
	return nil
}

func (f fakeBanks) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.banks[id]; !ok {
		return missing("delete question bank")
	}
	delete(f.s.banks, id)
	for qid, q := range f.s.questions {
		if q.BankID == id {
			delete(f.s.questions, qid)
		}
	}
	return nil
}

func (f fakeBanks) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionBankFilters) ([]*models.QuestionBank, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.QuestionBank
	for _, b := range f.s.banks {
		c := *b
		for _, q := range f.s.questions {
			if q.BankID == b.ID {
				c.QuestionCount++
			}
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f fakeBanks) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, b := range f.s.banks {
		if b.Name == name && (excludeID == nil || b.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

// ===== QUESTIONS =====

type fakeQuestions struct{ s *fakeStore }

func (f fakeQuestions) store(q *models.Question) {
	q.ID = f.s.id()
	for i := range q.Options {
		q.Options[i].ID = f.s.id()
		q.Options[i].QuestionID = q.ID
	}
	f.s.questions[q.ID] = cloneQuestion(q)
}

func (f fakeQuestions) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.store(question)
	return nil
}

func (f fakeQuestions) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failCreateBatch != nil {
		return f.s.failCreateBatch
	}
	for _, q := range questions {
		f.store(q)
	}
	return nil
}

func (f fakeQuestions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	q, ok := f.s.questions[id]
	if !ok {
		return nil, missing("get question by id")
	}
	return cloneQuestion(q), nil
}

func (f fakeQuestions) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Question
	for _, id := range ids {
		if q, ok := f.s.questions[id]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (f fakeQuestions) ListByBank(ctx context.Context, tx *gorm.DB, bankID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Question
	for _, q := range f.s.questions {
		if q.BankID == bankID && (filters.Type == nil || q.Type == *filters.Type) {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f fakeQuestions) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	stored, ok := f.s.questions[question.ID]
	if !ok {
		return missing("update question")
	}
	stored.Type = question.Type
	stored.Content = question.Content
	stored.Answer = question.Answer
	return nil
}

func (f fakeQuestions) ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.QuestionOption) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	stored, ok := f.s.questions[questionID]
	if !ok {
		return missing("replace options")
	}
	stored.Options = nil
	for i, o := range options {
		o.ID = f.s.id()
		o.QuestionID = questionID
		o.Position = i
		stored.Options = append(stored.Options, o)
	}
	return nil
}

func (f fakeQuestions) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.questions[id]; !ok {
		return missing("delete question")
	}
	delete(f.s.questions, id)
	return nil
}

func (f fakeQuestions) CountByBank(ctx context.Context, tx *gorm.DB, bankID uint) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, q := range f.s.questions {
		if q.BankID == bankID {
			n++
		}
	}
	return n, nil
}

func (f fakeQuestions) CountByType(ctx context.Context, tx *gorm.DB) (map[models.QuestionType]int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := map[models.QuestionType]int64{}
	for _, q := range f.s.questions {
		out[q.Type]++
	}
	return out, nil
}

// ===== IMPORT JOBS =====

type fakeJobs struct{ s *fakeStore }

func (f fakeJobs) Create(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	job.ID = f.s.id()
	c := *job
	f.s.jobs[job.ID] = &c
	return nil
}

func (f fakeJobs) Update(ctx context.Context, tx *gorm.DB, job *models.ImportJob) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c := *job
	f.s.jobs[job.ID] = &c
	return nil
}

func (f fakeJobs) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ImportJob, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	j, ok := f.s.jobs[id]
	if !ok {
		return nil, missing("get import job")
	}
	c := *j
	return &c, nil
}

func (f fakeJobs) ListByBank(ctx context.Context, tx *gorm.DB, bankID uint, limit, offset int) ([]*models.ImportJob, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.ImportJob
	for _, j := range f.s.jobs {
		if j.BankID == bankID {
			c := *j
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

// ===== EXAMS =====

type fakeExams struct{ s *fakeStore }

func (f fakeExams) fill(e *models.Exam) {
	e.QuestionsCount, e.TotalPoints = 0, 0
	for _, eq := range f.s.assigned[e.ID] {
		e.QuestionsCount++
		e.TotalPoints += eq.Score
	}
}

func (f fakeExams) withQuestion(eq models.ExamQuestion) *models.ExamQuestion {
	if q, ok := f.s.questions[eq.QuestionID]; ok {
		eq.Question = cloneQuestion(q)
	}
	return &eq
}

func (f fakeExams) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	exam.ID = f.s.id()
	c := *exam
	c.Questions = nil
	f.s.exams[exam.ID] = &c
	return nil
}

func (f fakeExams) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.exams[id]
	if !ok {
		return nil, missing("get exam by id")
	}
	c := *e
	f.fill(&c)
	return &c, nil
}

func (f fakeExams) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.exams[id]
	if !ok {
		return nil, missing("get exam with questions")
	}
	c := *e
	f.fill(&c)
	c.Questions = nil
	for _, eq := range f.s.assigned[id] {
		c.Questions = append(c.Questions, *f.withQuestion(eq))
	}
	return &c, nil
}

func (f fakeExams) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	stored, ok := f.s.exams[exam.ID]
	if !ok {
		return missing("update exam")
	}
	stored.Name, stored.StartTime, stored.EndTime = exam.Name, exam.StartTime, exam.EndTime
	return nil
}

func (f fakeExams) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.exams[id]; !ok {
		return missing("delete exam")
	}
	delete(f.s.exams, id)
	delete(f.s.assigned, id)
	return nil
}

func (f fakeExams) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Exam
	for _, e := range f.s.exams {
		if filters.ActiveAt != nil && !e.IsActiveAt(*filters.ActiveAt) {
			continue
		}
		if filters.BankID != nil && e.BankID != *filters.BankID {
			continue
		}
		c := *e
		f.fill(&c)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f fakeExams) ReplaceQuestions(ctx context.Context, tx *gorm.DB, examID uint, assignments []models.ExamQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	list := make([]models.ExamQuestion, len(assignments))
	for i, a := range assignments {
		a.ID = f.s.id()
		a.ExamID = examID
		a.Question = nil
		list[i] = a
	}
	f.s.assigned[examID] = list
	return nil
}

func (f fakeExams) GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.ExamQuestion
	for _, eq := range f.s.assigned[examID] {
		out = append(out, f.withQuestion(eq))
	}
	return out, nil
}

func (f fakeExams) GetQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) (*models.ExamQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, eq := range f.s.assigned[examID] {
		if eq.QuestionID == questionID {
			return f.withQuestion(eq), nil
		}
	}
	return nil, missing("get exam question")
}

func (f fakeExams) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return int64(len(f.s.exams)), nil
}

// ===== ANSWERS =====

type fakeAnswers struct{ s *fakeStore }

func (f fakeAnswers) find(studentID, examID, questionID uint) *models.StudentAnswer {
	for _, a := range f.s.answers {
		if a.StudentID == studentID && a.ExamID == examID && a.QuestionID == questionID {
			return a
		}
	}
	return nil
}

func (f fakeAnswers) Upsert(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	answer.Score, answer.GradedBy, answer.GradedAt = nil, nil, nil
	if existing := f.find(answer.StudentID, answer.ExamID, answer.QuestionID); existing != nil {
		answer.ID = existing.ID
	} else {
		answer.ID = f.s.id()
	}
	f.s.answers[answer.ID] = cloneAnswer(answer)
	return nil
}

func (f fakeAnswers) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.find(answer.StudentID, answer.ExamID, answer.QuestionID) != nil {
		return fmt.Errorf("create answer failed: %w", gorm.ErrDuplicatedKey)
	}
	answer.ID = f.s.id()
	f.s.answers[answer.ID] = cloneAnswer(answer)
	return nil
}

func (f fakeAnswers) Get(ctx context.Context, tx *gorm.DB, studentID, examID, questionID uint) (*models.StudentAnswer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if a := f.find(studentID, examID, questionID); a != nil {
		return cloneAnswer(a), nil
	}
	return nil, missing("get answer")
}

func (f fakeAnswers) ListByExamQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) ([]*models.StudentAnswer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.StudentAnswer
	for _, a := range f.s.answers {
		if a.ExamID == examID && a.QuestionID == questionID {
			out = append(out, cloneAnswer(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeAnswers) ListByStudentExam(ctx context.Context, tx *gorm.DB, studentID, examID uint) ([]*models.StudentAnswer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.StudentAnswer
	for _, a := range f.s.answers {
		if a.StudentID == studentID && a.ExamID == examID {
			c := cloneAnswer(a)
			if q, ok := f.s.questions[a.QuestionID]; ok {
				c.Question = cloneQuestion(q)
			}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f fakeAnswers) UpdateScore(ctx context.Context, tx *gorm.DB, id uint, score float64, gradedBy *uint, gradedAt time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.answers[id]
	if !ok {
		return missing("update answer score")
	}
	a.Score = &score
	a.GradedBy = gradedBy
	a.GradedAt = &gradedAt
	return nil
}

func (f fakeAnswers) SumScores(ctx context.Context, tx *gorm.DB, studentID, examID uint) (float64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var total float64
	for _, a := range f.s.answers {
		if a.StudentID == studentID && a.ExamID == examID {
			total += a.ScoreValue()
		}
	}
	return total, nil
}

func (f fakeAnswers) StudentIDsByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]uint, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	seen := map[uint]bool{}
	var out []uint
	for _, a := range f.s.answers {
		if a.ExamID == examID && !seen[a.StudentID] {
			seen[a.StudentID] = true
			out = append(out, a.StudentID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f fakeAnswers) StatsByExam(ctx context.Context, tx *gorm.DB, examID uint) (map[uint]*repositories.AnswerStats, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := map[uint]*repositories.AnswerStats{}
	sums := map[uint]float64{}
	for _, a := range f.s.answers {
		if a.ExamID != examID {
			continue
		}
		st, ok := out[a.QuestionID]
		if !ok {
			st = &repositories.AnswerStats{QuestionID: a.QuestionID}
			out[a.QuestionID] = st
		}
		st.Attempts++
		if a.Score != nil {
			st.Graded++
			sums[a.QuestionID] += *a.Score
		}
	}
	for id, st := range out {
		if st.Graded > 0 {
			st.AverageScore = sums[id] / float64(st.Graded)
		}
	}
	return out, nil
}

// ===== GRADES =====

type fakeGrades struct{ s *fakeStore }

func (f fakeGrades) Upsert(ctx context.Context, tx *gorm.DB, studentID, examID uint, grade float64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	key := [2]uint{studentID, examID}
	if g, ok := f.s.grades[key]; ok {
		g.Grade = grade
		return nil
	}
	f.s.grades[key] = &models.StudentGrade{ID: f.s.id(), StudentID: studentID, ExamID: examID, Grade: grade}
	return nil
}

func (f fakeGrades) Get(ctx context.Context, tx *gorm.DB, studentID, examID uint) (*models.StudentGrade, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g, ok := f.s.grades[[2]uint{studentID, examID}]
	if !ok {
		return nil, missing("get grade")
	}
	c := *g
	return &c, nil
}

func (f fakeGrades) ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.GradeFilters) ([]models.GradeSummary, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.GradeSummary
	for _, g := range f.s.grades {
		if g.ExamID != examID {
			continue
		}
		u := f.s.users[g.StudentID]
		if u == nil {
			continue
		}
		if filters.StudentNumber != "" && !strings.Contains(u.Account, filters.StudentNumber) {
			continue
		}
		if filters.Name != "" && !strings.Contains(u.FullName, filters.Name) {
			continue
		}
		out = append(out, models.GradeSummary{
			StudentID:     u.ID,
			StudentNumber: u.Account,
			Name:          u.FullName,
			Class:         u.Class,
			Grade:         g.Grade,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentNumber < out[j].StudentNumber })
	return out, int64(len(out)), nil
}

func (f fakeGrades) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.StudentGrade, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.StudentGrade
	for _, g := range f.s.grades {
		if g.StudentID == studentID {
			c := *g
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f fakeGrades) AverageByExam(ctx context.Context, tx *gorm.DB, examID uint) (float64, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var (
		sum float64
		n   int64
	)
	for _, g := range f.s.grades {
		if g.ExamID == examID {
			sum += g.Grade
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return sum / float64(n), n, nil
}

// ===== DASHBOARD =====

type fakeDashboard struct{ s *fakeStore }

func (f fakeDashboard) GetTotals(ctx context.Context, tx *gorm.DB) (*repositories.DashboardTotals, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t := &repositories.DashboardTotals{
		QuestionBanks: int64(len(f.s.banks)),
		Questions:     int64(len(f.s.questions)),
		Exams:         int64(len(f.s.exams)),
	}
	for _, u := range f.s.users {
		switch u.Role {
		case models.RoleStudent:
			t.Students++
		case models.RoleTeacher:
			t.Teachers++
		}
	}
	graded := map[uint]bool{}
	for _, g := range f.s.grades {
		graded[g.ExamID] = true
	}
	t.GradedExams = int64(len(graded))
	return t, nil
}

func (f fakeDashboard) GetQuestionDistribution(ctx context.Context, tx *gorm.DB) ([]repositories.QuestionDistributionData, error) {
	counts, _ := fakeQuestions{f.s}.CountByType(ctx, tx)
	var out []repositories.QuestionDistributionData
	for _, t := range models.AllQuestionTypes() {
		if counts[t] > 0 {
			out = append(out, repositories.QuestionDistributionData{Type: string(t), Count: counts[t]})
		}
	}
	return out, nil
}

func (f fakeDashboard) GetRecentImports(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.RecentImportData, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []repositories.RecentImportData
	for _, j := range f.s.jobs {
		out = append(out, repositories.RecentImportData{
			JobID:    j.ID,
			BankID:   j.BankID,
			FileName: j.FileName,
			Status:   string(j.Status),
			Imported: j.Imported,
			Skipped:  j.Skipped,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID > out[j].JobID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
