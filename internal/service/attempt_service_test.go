package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/clock"
	"github.com/certlab/certlab-backend/internal/model"
)

type fakeAttemptStore struct {
	attempts []model.Attempt
}

func (f *fakeAttemptStore) Create(_ context.Context, a *model.Attempt) error {
	a.ID = uuid.New()
	f.attempts = append(f.attempts, *a)
	return nil
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	for i := range f.attempts {
		if f.attempts[i].ID == id {
			cp := f.attempts[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAttemptStore) CompleteIfPending(_ context.Context, id uuid.UUID, answers map[string]string, score int, completedAt time.Time, timeSpent int) (bool, error) {
	for i := range f.attempts {
		if f.attempts[i].ID == id {
			if f.attempts[i].CompletedAt != nil {
				return false, nil
			}
			at := completedAt
			ts := timeSpent
			sc := score
			f.attempts[i].Answers = answers
			f.attempts[i].Score = &sc
			f.attempts[i].CompletedAt = &at
			f.attempts[i].TimeSpent = &ts
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttemptStore) MergeAnswers(_ context.Context, id uuid.UUID, answers map[string]string) error {
	for i := range f.attempts {
		if f.attempts[i].ID == id && f.attempts[i].CompletedAt == nil {
			if f.attempts[i].Answers == nil {
				f.attempts[i].Answers = map[string]string{}
			}
			for k, v := range answers {
				f.attempts[i].Answers[k] = v
			}
		}
	}
	return nil
}

func (f *fakeAttemptStore) FindPendingByUser(_ context.Context, examID, userID uuid.UUID) (*model.Attempt, error) {
	for i := range f.attempts {
		a := &f.attempts[i]
		if a.ExamID == examID && a.UserID == userID && a.CompletedAt == nil {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAttemptStore) LatestCompleted(_ context.Context, examID, userID uuid.UUID) (*model.Attempt, error) {
	var match *model.Attempt
	for i := range f.attempts {
		a := &f.attempts[i]
		if a.ExamID == examID && a.UserID == userID && a.CompletedAt != nil {
			if match == nil || a.CompletedAt.After(*match.CompletedAt) {
				match = a
			}
		}
	}
	if match == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *match
	return &cp, nil
}

func (f *fakeAttemptStore) ListPending(_ context.Context) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.CompletedAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeExamStore struct {
	exams []model.Exam
}

func (f *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	for i := range f.exams {
		if f.exams[i].ID == id {
			cp := f.exams[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeExamStore) ListByCreatorPaginated(_ context.Context, creatorID uuid.UUID, limit, offset int) ([]model.Exam, int, error) {
	var out []model.Exam
	for _, e := range f.exams {
		if e.CreatorID == creatorID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeExamStore) ListPublished(_ context.Context) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range f.exams {
		if e.Status == model.ExamStatusPublished {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExamStore) Create(_ context.Context, e *model.Exam) error {
	e.ID = uuid.New()
	f.exams = append(f.exams, *e)
	return nil
}

func (f *fakeExamStore) Update(_ context.Context, e *model.Exam) error {
	for i := range f.exams {
		if f.exams[i].ID == e.ID {
			f.exams[i] = *e
		}
	}
	return nil
}

func (f *fakeExamStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.ExamStatus) error {
	for i := range f.exams {
		if f.exams[i].ID == id {
			f.exams[i].Status = status
		}
	}
	return nil
}

func (f *fakeExamStore) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.exams {
		if f.exams[i].ID == id {
			f.exams = append(f.exams[:i], f.exams[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSubjectStore struct {
	subjects []model.Subject
}

func (f *fakeSubjectStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Subject, error) {
	var out []model.Subject
	for _, s := range f.subjects {
		if s.ExamID == examID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubjectStore) GetByID(_ context.Context, id uuid.UUID) (*model.Subject, error) {
	for i := range f.subjects {
		if f.subjects[i].ID == id {
			cp := f.subjects[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSubjectStore) Create(_ context.Context, s *model.Subject) error {
	s.ID = uuid.New()
	f.subjects = append(f.subjects, *s)
	return nil
}

func (f *fakeSubjectStore) Update(_ context.Context, s *model.Subject) error {
	for i := range f.subjects {
		if f.subjects[i].ID == s.ID {
			f.subjects[i] = *s
		}
	}
	return nil
}

func (f *fakeSubjectStore) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.subjects {
		if f.subjects[i].ID == id {
			f.subjects = append(f.subjects[:i], f.subjects[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeQuestionStore struct {
	questions []model.Question
	subjects  *fakeSubjectStore
}

func (f *fakeQuestionStore) ListBySubject(_ context.Context, subjectID uuid.UUID) ([]model.Question, error) {
	var out []model.Question
	for _, q := range f.questions {
		if q.SubjectID == subjectID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	subs, err := f.subjects.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	var out []model.Question
	for _, s := range subs {
		for _, q := range f.questions {
			if q.SubjectID == s.ID {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	for i := range f.questions {
		if f.questions[i].ID == id {
			cp := f.questions[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeQuestionStore) Create(_ context.Context, q *model.Question) error {
	q.ID = uuid.New()
	f.questions = append(f.questions, *q)
	return nil
}

func (f *fakeQuestionStore) Update(_ context.Context, q *model.Question) error {
	for i := range f.questions {
		if f.questions[i].ID == q.ID {
			f.questions[i] = *q
		}
	}
	return nil
}

func (f *fakeQuestionStore) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.questions {
		if f.questions[i].ID == id {
			f.questions = append(f.questions[:i], f.questions[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSessionCache struct {
	starts  map[string]time.Time
	orders  map[string][]string
	answers map[string]map[string]string

	persistQueue []string
	cleanupQueue []string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		starts:  map[string]time.Time{},
		orders:  map[string][]string{},
		answers: map[string]map[string]string{},
	}
}

func (f *fakeSessionCache) StoreStart(_ context.Context, attemptID string, startedAt time.Time) error {
	f.starts[attemptID] = startedAt
	return nil
}

func (f *fakeSessionCache) StoreOrder(_ context.Context, attemptID string, order []string) error {
	f.orders[attemptID] = append([]string(nil), order...)
	return nil
}

func (f *fakeSessionCache) Order(_ context.Context, attemptID string) ([]string, error) {
	return f.orders[attemptID], nil
}

func (f *fakeSessionCache) StoreAnswer(_ context.Context, attemptID, questionID, answer string) error {
	if f.answers[attemptID] == nil {
		f.answers[attemptID] = map[string]string{}
	}
	f.answers[attemptID][questionID] = answer
	return nil
}

func (f *fakeSessionCache) Answers(_ context.Context, attemptID string) (map[string]string, error) {
	return f.answers[attemptID], nil
}

func (f *fakeSessionCache) EnqueuePersist(_ context.Context, attemptID string) error {
	f.persistQueue = append(f.persistQueue, attemptID)
	return nil
}

func (f *fakeSessionCache) EnqueueCleanup(_ context.Context, attemptID string) error {
	f.cleanupQueue = append(f.cleanupQueue, attemptID)
	return nil
}

type fakeSessionClock struct {
	armed    map[uuid.UUID]time.Duration
	canceled map[uuid.UUID]int
}

func newFakeSessionClock() *fakeSessionClock {
	return &fakeSessionClock{
		armed:    map[uuid.UUID]time.Duration{},
		canceled: map[uuid.UUID]int{},
	}
}

func (f *fakeSessionClock) Arm(attemptID uuid.UUID, d time.Duration, _ clock.ExpireFunc) {
	f.armed[attemptID] = d
}

func (f *fakeSessionClock) Cancel(attemptID uuid.UUID) {
	f.canceled[attemptID]++
}

type attemptFixture struct {
	svc      *AttemptService
	attempts *fakeAttemptStore
	codes    *fakeCodeStore
	cache    *fakeSessionCache
	clock    *fakeSessionClock
	examID   uuid.UUID
	userID   uuid.UUID
	email    string
}

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()

	examID := uuid.New()
	userID := uuid.New()
	limit := 30
	exams := &fakeExamStore{exams: []model.Exam{{
		ID:          examID,
		Title:       "Math 101",
		Status:      model.ExamStatusPublished,
		TimeLimit:   &limit,
		ShowResults: true,
	}}}

	subjects := &fakeSubjectStore{}
	sub, qs := subjectWithQuestions(examID, "Algebra", 3)
	subjects.subjects = append(subjects.subjects, sub)
	questions := &fakeQuestionStore{questions: qs, subjects: subjects}

	codes := &fakeCodeStore{codes: []model.ExamCode{{
		ID:        uuid.New(),
		ExamID:    examID,
		Code:      "ABC12345",
		UserEmail: "a@x.com",
		CreatedAt: time.Now(),
	}}}
	profiles := &fakeProfileStore{
		profiles: []model.Profile{{ID: userID, Email: "a@x.com", Role: model.RoleUser}},
	}
	access := NewAccessService(codes, profiles, zerolog.Nop())

	attempts := &fakeAttemptStore{}
	cache := newFakeSessionCache()
	sc := newFakeSessionClock()

	svc := NewAttemptService(attempts, codes, exams, subjects, questions, access, cache, sc, zerolog.Nop())
	return &attemptFixture{
		svc:      svc,
		attempts: attempts,
		codes:    codes,
		cache:    cache,
		clock:    sc,
		examID:   examID,
		userID:   userID,
		email:    "a@x.com",
	}
}

func TestStartFreezesOrderAndArmsTimer(t *testing.T) {
	fx := newAttemptFixture(t)

	state, err := fx.svc.Start(context.Background(), fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if len(state.QuestionOrder) != 3 {
		t.Errorf("expected 3 frozen questions, got %d", len(state.QuestionOrder))
	}
	if state.RemainingSeconds != 30*60 {
		t.Errorf("expected full time limit remaining, got %d", state.RemainingSeconds)
	}
	if d, ok := fx.clock.armed[state.AttemptID]; !ok || d != 30*time.Minute {
		t.Errorf("expected a 30m timer armed for the attempt, got %v (armed=%v)", d, ok)
	}
	if fx.codes.codes[0].Used {
		t.Error("starting must not consume the code")
	}
}

func TestStartResumesPendingAttempt(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	second, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if second.AttemptID != first.AttemptID {
		t.Errorf("expected the open attempt to be resumed, got %s vs %s", second.AttemptID, first.AttemptID)
	}
	if len(fx.attempts.attempts) != 1 {
		t.Errorf("expected a single attempt row, got %d", len(fx.attempts.attempts))
	}
}

func TestSubmitSecondTimeReturnsAlreadyCompleted(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	state, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, state.AttemptID, fx.userID); err != nil {
		t.Fatalf("first Submit returned error: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, state.AttemptID, fx.userID); !errors.Is(err, ErrAttemptAlreadyCompleted) {
		t.Errorf("expected ErrAttemptAlreadyCompleted on second submit, got %v", err)
	}
}

func TestSubmitMergesAutosavedAnswersAndScores(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	state, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	for _, qid := range state.QuestionOrder {
		if err := fx.svc.SaveAnswer(ctx, state.AttemptID, fx.userID, qid, "4"); err != nil {
			t.Fatalf("SaveAnswer returned error: %v", err)
		}
	}

	out, err := fx.svc.Submit(ctx, state.AttemptID, fx.userID)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if out.Summary.Score != 100 {
		t.Errorf("expected a perfect score, got %d", out.Summary.Score)
	}
	if !out.Summary.Passed {
		t.Error("expected a perfect attempt to pass")
	}
	if !fx.codes.codes[0].Used {
		t.Error("submitting must consume the code")
	}
	if len(fx.cache.cleanupQueue) != 1 {
		t.Errorf("expected one cleanup enqueue, got %d", len(fx.cache.cleanupQueue))
	}
	if fx.clock.canceled[state.AttemptID] == 0 {
		t.Error("submitting must cancel the session timer")
	}
}

func TestSubmitRecordsTimeSpentInWholeMinutes(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	state, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	// Backdate the start so 90 seconds have elapsed; that rounds up to 2
	// minutes, not down to 1 and never to 90.
	fx.attempts.attempts[0].StartedAt = time.Now().Add(-90 * time.Second)

	out, err := fx.svc.Submit(ctx, state.AttemptID, fx.userID)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if out.TimeSpent != 2 {
		t.Errorf("expected time_spent of 2 minutes, got %d", out.TimeSpent)
	}
	if ts := fx.attempts.attempts[0].TimeSpent; ts == nil || *ts != 2 {
		t.Errorf("expected 2 minutes persisted, got %v", ts)
	}
}

func TestExpireConsumesCodeOnce(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	state, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	fx.svc.expire(state.AttemptID)

	a, err := fx.attempts.GetByID(ctx, state.AttemptID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !a.Completed() {
		t.Fatal("expiry must complete the attempt")
	}
	if len(fx.codes.consumed) != 1 {
		t.Errorf("expected exactly one code consumption, got %d", len(fx.codes.consumed))
	}

	// A late manual submit racing the timer finds the attempt closed and
	// must not consume anything further.
	if _, err := fx.svc.Submit(ctx, state.AttemptID, fx.userID); !errors.Is(err, ErrAttemptAlreadyCompleted) {
		t.Errorf("expected ErrAttemptAlreadyCompleted after expiry, got %v", err)
	}
	if len(fx.codes.consumed) != 1 {
		t.Errorf("code consumed again after expiry, got %d consumptions", len(fx.codes.consumed))
	}
}

func TestSubmitRejectsOtherAccount(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	state, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, state.AttemptID, uuid.New()); !errors.Is(err, ErrNotYourAttempt) {
		t.Errorf("expected ErrNotYourAttempt, got %v", err)
	}
}

func TestGetStateRebuildsOrderOnCacheMiss(t *testing.T) {
	fx := newAttemptFixture(t)
	ctx := context.Background()

	state, err := fx.svc.Start(ctx, fx.examID, fx.userID, fx.email, "ABC12345")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	delete(fx.cache.orders, state.AttemptID.String())

	got, err := fx.svc.GetState(ctx, state.AttemptID, fx.userID)
	if err != nil {
		t.Fatalf("GetState returned error: %v", err)
	}
	if len(got.QuestionOrder) != 3 {
		t.Errorf("expected the order rebuilt from the question list, got %d entries", len(got.QuestionOrder))
	}
	if fx.cache.orders[state.AttemptID.String()] == nil {
		t.Error("rebuilt order must be cached again")
	}
}
