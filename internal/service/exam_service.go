package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/config"
	"github.com/certlab/certlab-backend/internal/model"
)

var (
	// ErrNotExamCreator is returned when an account touches an exam it does
	// not own.
	ErrNotExamCreator = errors.New("not the exam creator")
	// ErrExamNotDraft is returned when publishing a non-draft exam.
	ErrExamNotDraft = errors.New("exam is not in draft status")
)

// PublishValidationError reports the first structural problem blocking a
// draft from being published.
type PublishValidationError struct {
	Reason string
}

func (e *PublishValidationError) Error() string { return e.Reason }

// ExamService owns exam authoring, the publish gate and the Redis payload
// cache. Published exams are cached once at publish time so session starts
// never assemble the paper from Postgres on the hot path.
type ExamService struct {
	exams     ExamStore
	subjects  SubjectStore
	questions QuestionStore
	redis     *redis.Client
	log       zerolog.Logger
}

// NewExamService creates an ExamService.
func NewExamService(exams ExamStore, subjects SubjectStore, questions QuestionStore, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:     exams,
		subjects:  subjects,
		questions: questions,
		redis:     rdb,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Create inserts a new draft exam owned by the creator.
func (s *ExamService) Create(ctx context.Context, creatorID uuid.UUID, req *model.CreateExamRequest) (*model.Exam, error) {
	showResults := true
	if req.ShowResults != nil {
		showResults = *req.ShowResults
	}

	e := &model.Exam{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		CreatorID:        creatorID,
		Status:           model.ExamStatusDraft,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		TimeLimit:        req.TimeLimit,
		ShuffleQuestions: req.ShuffleQuestions,
		ShowResults:      showResults,
	}
	if err := s.exams.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().Str("exam_id", e.ID.String()).Str("title", e.Title).Msg("Exam created")
	return e, nil
}

// GetOwned loads an exam and verifies ownership.
func (s *ExamService) GetOwned(ctx context.Context, examID, creatorID uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if e.CreatorID != creatorID {
		return nil, ErrNotExamCreator
	}
	return e, nil
}

// List returns a page of the creator's exams.
func (s *ExamService) List(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]model.Exam, int, error) {
	return s.exams.ListByCreatorPaginated(ctx, creatorID, limit, offset)
}

// Update applies partial edits to an owned exam. Published exams can still be
// edited; the payload cache is refreshed so running sessions are unaffected
// but new sessions see the change.
func (s *ExamService) Update(ctx context.Context, examID, creatorID uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	e, err := s.GetOwned(ctx, examID, creatorID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		e.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != nil {
		e.Description = req.Description
	}
	if req.StartDate != nil {
		e.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		e.EndDate = req.EndDate
	}
	if req.TimeLimit != nil {
		e.TimeLimit = req.TimeLimit
	}
	if req.ShuffleQuestions != nil {
		e.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.ShowResults != nil {
		e.ShowResults = *req.ShowResults
	}

	if err := s.exams.Update(ctx, e); err != nil {
		return nil, err
	}

	if e.Status == model.ExamStatusPublished {
		if err := s.WarmExamCache(ctx, e); err != nil {
			s.log.Error().Err(err).Str("exam_id", e.ID.String()).Msg("Failed to refresh exam cache")
		}
	}
	return e, nil
}

// Delete removes an owned exam and drops its cache entries.
func (s *ExamService) Delete(ctx context.Context, examID, creatorID uuid.UUID) error {
	if _, err := s.GetOwned(ctx, examID, creatorID); err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, examID); err != nil {
		return err
	}
	s.dropCache(ctx, examID)
	return nil
}

// Publish transitions a draft to published after structural validation, and
// warms the payload cache. Validation stops at the first failure so the
// creator sees one actionable reason at a time.
func (s *ExamService) Publish(ctx context.Context, examID, creatorID uuid.UUID) (*model.Exam, error) {
	e, err := s.GetOwned(ctx, examID, creatorID)
	if err != nil {
		return nil, err
	}
	if e.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	subjects, err := s.subjects.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	if err := validatePublish(e, subjects, questions, time.Now()); err != nil {
		return nil, err
	}

	if err := s.exams.UpdateStatus(ctx, examID, model.ExamStatusPublished); err != nil {
		return nil, err
	}
	e.Status = model.ExamStatusPublished

	if err := s.WarmExamCache(ctx, e); err != nil {
		s.log.Error().Err(err).Str("exam_id", e.ID.String()).Msg("Failed to warm exam cache on publish")
	}

	s.log.Info().Str("exam_id", e.ID.String()).Msg("Exam published")
	return e, nil
}

// Archive retires a published exam. Archived exams reject new sessions but
// keep their results readable.
func (s *ExamService) Archive(ctx context.Context, examID, creatorID uuid.UUID) (*model.Exam, error) {
	e, err := s.GetOwned(ctx, examID, creatorID)
	if err != nil {
		return nil, err
	}
	if err := s.exams.UpdateStatus(ctx, examID, model.ExamStatusArchived); err != nil {
		return nil, err
	}
	e.Status = model.ExamStatusArchived
	s.dropCache(ctx, examID)
	return e, nil
}

// validatePublish runs the ordered structural checks on a draft.
func validatePublish(e *model.Exam, subjects []model.Subject, questions []model.Question, now time.Time) error {
	if strings.TrimSpace(e.Title) == "" {
		return &PublishValidationError{Reason: "Exam title is required."}
	}
	if len(subjects) == 0 {
		return &PublishValidationError{Reason: "Add at least one subject before publishing."}
	}
	for _, sub := range subjects {
		if strings.TrimSpace(sub.Name) == "" {
			return &PublishValidationError{Reason: "Every subject needs a name."}
		}
	}
	if len(questions) == 0 {
		return &PublishValidationError{Reason: "Add at least one question before publishing."}
	}

	counts := make(map[uuid.UUID]int, len(subjects))
	for _, q := range questions {
		counts[q.SubjectID]++
	}
	var empty []string
	for _, sub := range subjects {
		if counts[sub.ID] == 0 {
			empty = append(empty, sub.Name)
		}
	}
	if len(empty) > 0 {
		return &PublishValidationError{
			Reason: fmt.Sprintf("These subjects have no questions: %s.", strings.Join(empty, ", ")),
		}
	}

	for _, q := range questions {
		if err := validateQuestionComplete(q); err != nil {
			return err
		}
	}

	if e.StartDate != nil && e.EndDate != nil && !e.EndDate.After(*e.StartDate) {
		return &PublishValidationError{Reason: "End date must be after the start date."}
	}
	if e.StartDate != nil && e.StartDate.Before(now) {
		return &PublishValidationError{Reason: "Start date is already in the past."}
	}
	return nil
}

func validateQuestionComplete(q model.Question) error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return &PublishValidationError{Reason: "A question is missing its text."}
	}
	if len(q.CorrectAnswers) == 0 {
		return &PublishValidationError{
			Reason: fmt.Sprintf("Question %q has no correct answer.", truncate(q.QuestionText, 60)),
		}
	}
	if q.Type == model.QuestionTypeMultipleChoice {
		if len(q.Options) < 2 {
			return &PublishValidationError{
				Reason: fmt.Sprintf("Question %q needs at least two options.", truncate(q.QuestionText, 60)),
			}
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return &PublishValidationError{
					Reason: fmt.Sprintf("Question %q has a blank option.", truncate(q.QuestionText, 60)),
				}
			}
		}
	}
	if q.Points <= 0 {
		return &PublishValidationError{
			Reason: fmt.Sprintf("Question %q must be worth at least one point.", truncate(q.QuestionText, 60)),
		}
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// BuildPaper assembles the taker-facing payload: subjects in order, questions
// in order, correct answers stripped.
func (s *ExamService) BuildPaper(ctx context.Context, e *model.Exam) (*model.ExamPaper, error) {
	subjects, err := s.subjects.ListByExam(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	paper := &model.ExamPaper{
		ExamID:           e.ID,
		Title:            e.Title,
		Description:      e.Description,
		TimeLimit:        e.TimeLimitMinutes(),
		ShuffleQuestions: e.ShuffleQuestions,
		ShowResults:      e.ShowResults,
		Subjects:         make([]model.PaperSubject, 0, len(subjects)),
	}

	for _, sub := range subjects {
		qs, err := s.questions.ListBySubject(ctx, sub.ID)
		if err != nil {
			return nil, err
		}

		ps := model.PaperSubject{
			ID:         sub.ID,
			Name:       sub.Name,
			TimeLimit:  sub.TimeLimit,
			PassMark:   sub.PassMark,
			OrderIndex: sub.OrderIndex,
			Questions:  make([]model.PaperQuestion, 0, len(qs)),
		}
		for _, q := range qs {
			ps.Questions = append(ps.Questions, model.PaperQuestion{
				ID:           q.ID,
				Type:         q.Type,
				QuestionText: q.QuestionText,
				Options:      q.Options,
				Points:       q.Points,
				OrderIndex:   q.OrderIndex,
			})
		}
		paper.Subjects = append(paper.Subjects, ps)
	}
	return paper, nil
}

// WarmExamCache stores the paper and duration in Redis. Entries have no TTL;
// they are replaced on edit and dropped on archive/delete.
func (s *ExamService) WarmExamCache(ctx context.Context, e *model.Exam) error {
	paper, err := s.BuildPaper(ctx, e)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(paper)
	if err != nil {
		return err
	}

	id := e.ID.String()
	if err := s.redis.Set(ctx, config.CacheKey.ExamPaperKey(id), raw, 0).Err(); err != nil {
		return err
	}
	return s.redis.Set(ctx, config.CacheKey.ExamDurationKey(id), strconv.Itoa(e.TimeLimitMinutes()), 0).Err()
}

// PrewarmAllCaches rebuilds the cache for every published exam. Called at
// boot so a cold Redis never degrades session starts.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.exams.ListPublished(ctx)
	if err != nil {
		return err
	}
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Error().Err(err).Str("exam_id", exams[i].ID.String()).Msg("Failed to prewarm exam cache")
			continue
		}
	}
	s.log.Info().Int("count", len(exams)).Msg("Exam caches prewarmed")
	return nil
}

// GetPaper serves the taker-facing payload from Redis, falling back to
// Postgres on a cache miss (and repopulating on the way out).
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	raw, err := s.redis.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err == nil {
		paper := &model.ExamPaper{}
		if err := json.Unmarshal(raw, paper); err == nil {
			return paper, nil
		}
	}

	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.WarmExamCache(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache repopulation failed")
	}
	return s.BuildPaper(ctx, e)
}

func (s *ExamService) dropCache(ctx context.Context, examID uuid.UUID) {
	id := examID.String()
	if err := s.redis.Del(ctx,
		config.CacheKey.ExamPaperKey(id),
		config.CacheKey.ExamDurationKey(id),
	).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id).Msg("Failed to drop exam cache")
	}
}
