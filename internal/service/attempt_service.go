package service

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/clock"
	"github.com/certlab/certlab-backend/internal/model"
	"github.com/certlab/certlab-backend/internal/scoring"
)

var (
	// ErrAttemptAlreadyCompleted is returned when submitting a finished
	// attempt.
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")
	// ErrNotYourAttempt is returned when an account touches someone else's
	// attempt.
	ErrNotYourAttempt = errors.New("attempt belongs to a different account")
	// ErrResultsHidden is returned when the exam withholds results from
	// takers.
	ErrResultsHidden = errors.New("results are not shown for this exam")
	// ErrNoCompletedAttempt is returned when a taker requests a result but
	// never finished an attempt.
	ErrNoCompletedAttempt = errors.New("no completed attempt")
)

// AttemptClock is the auto-submit timer surface used by the lifecycle.
// *clock.SessionClock is the production implementation.
type AttemptClock interface {
	Arm(attemptID uuid.UUID, d time.Duration, fn clock.ExpireFunc)
	Cancel(attemptID uuid.UUID)
}

// SubmitOutcome is returned from a successful submission.
type SubmitOutcome struct {
	AttemptID uuid.UUID       `json:"attempt_id"`
	Summary   scoring.Summary `json:"summary"`
	// TimeSpent is whole minutes from start to completion.
	TimeSpent int `json:"time_spent"`
	// ShowResults mirrors the exam flag; when false the caller should only
	// confirm receipt.
	ShowResults bool `json:"show_results"`
}

// AttemptService orchestrates the session lifecycle: code redemption,
// availability gating, order freezing, the autosave fast lane, timed
// auto-submission and final scoring.
//
// Session-scoped state (start instant, frozen question order, autosaved
// answers) lives in the SessionCache; Postgres holds the attempt row and is
// the fallback when the cache forgets.
type AttemptService struct {
	attempts  AttemptStore
	codes     CodeStore
	exams     ExamStore
	subjects  SubjectStore
	questions QuestionStore
	access    *AccessService
	cache     SessionCache
	clock     AttemptClock
	log       zerolog.Logger
}

// NewAttemptService creates an AttemptService.
func NewAttemptService(
	attempts AttemptStore,
	codes CodeStore,
	exams ExamStore,
	subjects SubjectStore,
	questions QuestionStore,
	access *AccessService,
	cache SessionCache,
	sessionClock AttemptClock,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		codes:     codes,
		exams:     exams,
		subjects:  subjects,
		questions: questions,
		access:    access,
		cache:     cache,
		clock:     sessionClock,
		log:       log.With().Str("component", "attempt_service").Logger(),
	}
}

// Verify runs the entry gates without creating anything: code redemption
// first, then the availability window. Used by the pre-start verify endpoint.
func (s *AttemptService) Verify(ctx context.Context, examID uuid.UUID, rawCode, userEmail string) (*model.Exam, error) {
	if _, err := s.access.Redeem(ctx, examID, rawCode, userEmail); err != nil {
		return nil, err
	}

	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := CheckAvailability(e, time.Now()); err != nil {
		return nil, err
	}
	return e, nil
}

// Start opens a session. The gates run again (verification and start are
// separate requests), then the question order and point total are frozen,
// the attempt row is created, session state is cached and the auto-submit
// timer is armed. An open attempt for the same exam and account is resumed
// instead of duplicated.
func (s *AttemptService) Start(ctx context.Context, examID, userID uuid.UUID, userEmail, rawCode string) (*model.AttemptState, error) {
	code, err := s.access.Redeem(ctx, examID, rawCode, userEmail)
	if err != nil {
		return nil, err
	}

	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := CheckAvailability(e, now); err != nil {
		return nil, err
	}

	if pending, err := s.attempts.FindPendingByUser(ctx, examID, userID); err == nil {
		return s.stateFor(ctx, pending, e)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	order := make([]string, len(questions))
	total := 0
	for i, q := range questions {
		order[i] = q.ID.String()
		total += q.Points
	}
	if e.ShuffleQuestions {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	a := &model.Attempt{
		ExamID:      examID,
		UserID:      userID,
		CodeID:      code.ID,
		Answers:     map[string]string{},
		TotalPoints: total,
		StartedAt:   now,
	}
	if err := s.attempts.Create(ctx, a); err != nil {
		return nil, err
	}

	id := a.ID.String()
	if err := s.cache.StoreStart(ctx, id, now); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", id).Msg("Failed to cache session start")
	}
	if err := s.cache.StoreOrder(ctx, id, order); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", id).Msg("Failed to cache question order")
	}

	limit := time.Duration(e.TimeLimitMinutes()) * time.Minute
	s.clock.Arm(a.ID, limit, s.expire)

	s.log.Info().
		Str("attempt_id", id).
		Str("exam_id", examID.String()).
		Int("questions", len(order)).
		Int("total_points", total).
		Msg("Session started")

	return &model.AttemptState{
		AttemptID:        a.ID,
		ExamID:           examID,
		QuestionOrder:    order,
		AutosavedAnswers: map[string]string{},
		RemainingSeconds: int(limit.Seconds()),
	}, nil
}

// SaveAnswer records one answer into the session cache and enqueues the
// attempt for background persistence. Rejected once the attempt is completed.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID, userID uuid.UUID, questionID, answer string) error {
	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return ErrNotYourAttempt
	}
	if a.Completed() {
		return ErrAttemptAlreadyCompleted
	}

	id := attemptID.String()
	if err := s.cache.StoreAnswer(ctx, id, questionID, answer); err != nil {
		return err
	}
	return s.cache.EnqueuePersist(ctx, id)
}

// Submit finalizes an attempt on the taker's request.
func (s *AttemptService) Submit(ctx context.Context, attemptID, userID uuid.UUID) (*SubmitOutcome, error) {
	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrNotYourAttempt
	}
	return s.finalize(ctx, a, time.Now())
}

// expire is the AttemptClock callback: submit whatever answers exist. The
// completed_at guard makes losing the race against a manual submit harmless.
func (s *AttemptService) expire(attemptID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Auto-submit lookup failed")
		return
	}
	if _, err := s.finalize(ctx, a, time.Now()); err != nil && !errors.Is(err, ErrAttemptAlreadyCompleted) {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Auto-submit failed")
	}
}

// finalize merges autosaved answers over the persisted ones, scores against
// the frozen point total and completes the row exactly once.
func (s *AttemptService) finalize(ctx context.Context, a *model.Attempt, now time.Time) (*SubmitOutcome, error) {
	if a.Completed() {
		return nil, ErrAttemptAlreadyCompleted
	}

	answers := make(map[string]string, len(a.Answers))
	for k, v := range a.Answers {
		answers[k] = v
	}
	cached, err := s.cache.Answers(ctx, a.ID.String())
	if err == nil {
		for k, v := range cached {
			answers[k] = v
		}
	}

	e, err := s.exams.GetByID(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByExam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}

	summary := scoring.Score(subjects, questions, answers, a.TotalPoints)
	// time_spent is recorded in whole minutes, rounded half up.
	timeSpent := int(math.Round(now.Sub(a.StartedAt).Minutes()))

	done, err := s.attempts.CompleteIfPending(ctx, a.ID, answers, summary.Score, now, timeSpent)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, ErrAttemptAlreadyCompleted
	}

	s.clock.Cancel(a.ID)

	if ok, err := s.codes.Consume(ctx, a.CodeID); err != nil {
		s.log.Error().Err(err).Str("code_id", a.CodeID.String()).Msg("Failed to consume access code")
	} else if !ok {
		s.log.Warn().Str("code_id", a.CodeID.String()).Msg("Access code was already consumed")
	}

	if err := s.cache.EnqueueCleanup(ctx, a.ID.String()); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to enqueue session cleanup")
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Int("score", summary.Score).
		Bool("passed", summary.Passed).
		Int("time_spent", timeSpent).
		Msg("Attempt submitted")

	return &SubmitOutcome{
		AttemptID:   a.ID,
		Summary:     summary,
		TimeSpent:   timeSpent,
		ShowResults: e.ShowResults,
	}, nil
}

// GetState returns the resumable session view: frozen order, autosaved
// answers and remaining seconds. Cache misses fall back to the attempt row.
func (s *AttemptService) GetState(ctx context.Context, attemptID, userID uuid.UUID) (*model.AttemptState, error) {
	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrNotYourAttempt
	}
	if a.Completed() {
		return nil, ErrAttemptAlreadyCompleted
	}

	e, err := s.exams.GetByID(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	return s.stateFor(ctx, a, e)
}

func (s *AttemptService) stateFor(ctx context.Context, a *model.Attempt, e *model.Exam) (*model.AttemptState, error) {
	id := a.ID.String()

	order, err := s.cache.Order(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("attempt_id", id).Msg("Failed to read cached order")
	}
	if order == nil {
		// The cache lost the frozen order; rebuild the stable sequence. A
		// shuffled session falls back to subject order, which is the
		// documented restart behavior.
		questions, err := s.questions.ListByExam(ctx, a.ExamID)
		if err != nil {
			return nil, err
		}
		order = make([]string, len(questions))
		for i, q := range questions {
			order[i] = q.ID.String()
		}
		if err := s.cache.StoreOrder(ctx, id, order); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", id).Msg("Failed to re-cache question order")
		}
	}

	answers := make(map[string]string, len(a.Answers))
	for k, v := range a.Answers {
		answers[k] = v
	}
	if cached, err := s.cache.Answers(ctx, id); err == nil {
		for k, v := range cached {
			answers[k] = v
		}
	}

	limit := time.Duration(e.TimeLimitMinutes()) * time.Minute
	remaining := int(time.Until(a.StartedAt.Add(limit)).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	return &model.AttemptState{
		AttemptID:        a.ID,
		ExamID:           a.ExamID,
		QuestionOrder:    order,
		AutosavedAnswers: answers,
		RemainingSeconds: remaining,
	}, nil
}

// Result returns the taker's most recent completed attempt, rescored for the
// per-subject breakdown. Hidden when the exam withholds results.
func (s *AttemptService) Result(ctx context.Context, examID, userID uuid.UUID) (*SubmitOutcome, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !e.ShowResults {
		return nil, ErrResultsHidden
	}

	a, err := s.attempts.LatestCompleted(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCompletedAttempt
		}
		return nil, err
	}

	subjects, err := s.subjects.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	timeSpent := 0
	if a.TimeSpent != nil {
		timeSpent = *a.TimeSpent
	}
	return &SubmitOutcome{
		AttemptID:   a.ID,
		Summary:     scoring.Score(subjects, questions, a.Answers, a.TotalPoints),
		TimeSpent:   timeSpent,
		ShowResults: true,
	}, nil
}

// RearmPendingTimers re-arms auto-submit timers for attempts that were open
// when the process last stopped. Already-expired attempts are finalized
// immediately.
func (s *AttemptService) RearmPendingTimers(ctx context.Context) error {
	pending, err := s.attempts.ListPending(ctx)
	if err != nil {
		return err
	}

	rearmed, expired := 0, 0
	for i := range pending {
		a := pending[i]
		e, err := s.exams.GetByID(ctx, a.ExamID)
		if err != nil {
			s.log.Error().Err(err).Str("attempt_id", a.ID.String()).Msg("Rearm: exam lookup failed")
			continue
		}

		limit := time.Duration(e.TimeLimitMinutes()) * time.Minute
		remaining := time.Until(a.StartedAt.Add(limit))
		if remaining <= 0 {
			if _, err := s.finalize(ctx, &a, time.Now()); err != nil && !errors.Is(err, ErrAttemptAlreadyCompleted) {
				s.log.Error().Err(err).Str("attempt_id", a.ID.String()).Msg("Rearm: overdue finalize failed")
			}
			expired++
			continue
		}

		s.clock.Arm(a.ID, remaining, s.expire)
		rearmed++
	}

	s.log.Info().Int("rearmed", rearmed).Int("expired", expired).Msg("Pending session timers restored")
	return nil
}
