package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/model"
)

// ContentService owns subject and question authoring. Every operation
// resolves the parent exam and verifies ownership before touching rows.
// Edits against a published exam refresh the Redis payload cache; running
// sessions keep their frozen order and point total.
type ContentService struct {
	exams     ExamStore
	subjects  SubjectStore
	questions QuestionStore
	examSvc   *ExamService
	log       zerolog.Logger
}

// NewContentService creates a ContentService.
func NewContentService(exams ExamStore, subjects SubjectStore, questions QuestionStore, examSvc *ExamService, log zerolog.Logger) *ContentService {
	return &ContentService{
		exams:     exams,
		subjects:  subjects,
		questions: questions,
		examSvc:   examSvc,
		log:       log.With().Str("component", "content_service").Logger(),
	}
}

func (s *ContentService) ownedExam(ctx context.Context, examID, creatorID uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if e.CreatorID != creatorID {
		return nil, ErrNotExamCreator
	}
	return e, nil
}

func (s *ContentService) refreshIfPublished(ctx context.Context, e *model.Exam) {
	if e.Status != model.ExamStatusPublished {
		return
	}
	if err := s.examSvc.WarmExamCache(ctx, e); err != nil {
		s.log.Error().Err(err).Str("exam_id", e.ID.String()).Msg("Failed to refresh exam cache")
	}
}

// ListSubjects returns an exam's subjects in order.
func (s *ContentService) ListSubjects(ctx context.Context, examID, creatorID uuid.UUID) ([]model.Subject, error) {
	if _, err := s.ownedExam(ctx, examID, creatorID); err != nil {
		return nil, err
	}
	return s.subjects.ListByExam(ctx, examID)
}

// CreateSubject adds a subject to an owned exam.
func (s *ContentService) CreateSubject(ctx context.Context, examID, creatorID uuid.UUID, req *model.CreateSubjectRequest) (*model.Subject, error) {
	e, err := s.ownedExam(ctx, examID, creatorID)
	if err != nil {
		return nil, err
	}

	passMark := model.DefaultPassMark
	if req.PassMark != nil {
		passMark = *req.PassMark
	}
	sub := &model.Subject{
		ExamID:     examID,
		Name:       req.Name,
		TimeLimit:  req.TimeLimit,
		PassMark:   passMark,
		OrderIndex: req.OrderIndex,
	}
	if err := s.subjects.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.refreshIfPublished(ctx, e)
	return sub, nil
}

// UpdateSubject edits a subject on an owned exam.
func (s *ContentService) UpdateSubject(ctx context.Context, subjectID, creatorID uuid.UUID, req *model.UpdateSubjectRequest) (*model.Subject, error) {
	sub, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	e, err := s.ownedExam(ctx, sub.ExamID, creatorID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.TimeLimit != nil {
		sub.TimeLimit = req.TimeLimit
	}
	if req.PassMark != nil {
		sub.PassMark = *req.PassMark
	}
	if req.OrderIndex != nil {
		sub.OrderIndex = *req.OrderIndex
	}

	if err := s.subjects.Update(ctx, sub); err != nil {
		return nil, err
	}
	s.refreshIfPublished(ctx, e)
	return sub, nil
}

// DeleteSubject removes a subject and its questions from an owned exam.
func (s *ContentService) DeleteSubject(ctx context.Context, subjectID, creatorID uuid.UUID) error {
	sub, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return err
	}
	e, err := s.ownedExam(ctx, sub.ExamID, creatorID)
	if err != nil {
		return err
	}
	if err := s.subjects.Delete(ctx, subjectID); err != nil {
		return err
	}
	s.refreshIfPublished(ctx, e)
	return nil
}

// ListQuestions returns a subject's questions in order.
func (s *ContentService) ListQuestions(ctx context.Context, subjectID, creatorID uuid.UUID) ([]model.Question, error) {
	sub, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedExam(ctx, sub.ExamID, creatorID); err != nil {
		return nil, err
	}
	return s.questions.ListBySubject(ctx, subjectID)
}

// CreateQuestion adds a question to a subject on an owned exam. True/false
// questions always carry the fixed option pair.
func (s *ContentService) CreateQuestion(ctx context.Context, subjectID, creatorID uuid.UUID, req *model.CreateQuestionRequest) (*model.Question, error) {
	sub, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	e, err := s.ownedExam(ctx, sub.ExamID, creatorID)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		SubjectID:      subjectID,
		Type:           model.QuestionType(req.Type),
		QuestionText:   req.QuestionText,
		Options:        req.Options,
		CorrectAnswers: req.CorrectAnswers,
		Points:         req.Points,
		OrderIndex:     req.OrderIndex,
	}
	if q.Type == model.QuestionTypeTrueFalse {
		q.Options = model.TrueFalseOptions
	}

	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}
	s.refreshIfPublished(ctx, e)
	return q, nil
}

// UpdateQuestion edits a question on an owned exam.
func (s *ContentService) UpdateQuestion(ctx context.Context, questionID, creatorID uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	sub, err := s.subjects.GetByID(ctx, q.SubjectID)
	if err != nil {
		return nil, err
	}
	e, err := s.ownedExam(ctx, sub.ExamID, creatorID)
	if err != nil {
		return nil, err
	}

	if req.Type != "" {
		q.Type = model.QuestionType(req.Type)
	}
	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if req.Options != nil {
		q.Options = req.Options
	}
	if req.CorrectAnswers != nil {
		q.CorrectAnswers = req.CorrectAnswers
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.OrderIndex != nil {
		q.OrderIndex = *req.OrderIndex
	}
	if q.Type == model.QuestionTypeTrueFalse {
		q.Options = model.TrueFalseOptions
	}

	if err := s.questions.Update(ctx, q); err != nil {
		return nil, err
	}
	s.refreshIfPublished(ctx, e)
	return q, nil
}

// DeleteQuestion removes a question from an owned exam.
func (s *ContentService) DeleteQuestion(ctx context.Context, questionID, creatorID uuid.UUID) error {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	sub, err := s.subjects.GetByID(ctx, q.SubjectID)
	if err != nil {
		return err
	}
	e, err := s.ownedExam(ctx, sub.ExamID, creatorID)
	if err != nil {
		return err
	}
	if err := s.questions.Delete(ctx, questionID); err != nil {
		return err
	}
	s.refreshIfPublished(ctx, e)
	return nil
}
