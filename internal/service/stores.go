package service

import (
	"context"
	"time"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
)

// Store interfaces decouple services from pgx so business rules are testable
// against in-memory fakes. The repository package provides the production
// implementations.

// ProfileStore is the account persistence surface used by services.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	Create(ctx context.Context, p *model.Profile) error
}

// ExamStore is the exam persistence surface used by services.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListByCreatorPaginated(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]model.Exam, int, error)
	ListPublished(ctx context.Context) ([]model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubjectStore is the subject persistence surface used by services.
type SubjectStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Subject, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subject, error)
	Create(ctx context.Context, s *model.Subject) error
	Update(ctx context.Context, s *model.Subject) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionStore is the question persistence surface used by services.
type QuestionStore interface {
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Question, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CodeStore is the access code persistence surface used by services.
type CodeStore interface {
	FindRedeemable(ctx context.Context, examID uuid.UUID, code string) (*model.ExamCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamCode, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamCode, error)
	Create(ctx context.Context, c *model.ExamCode) error
	CreateBatch(ctx context.Context, codes []model.ExamCode) error
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// AttemptStore is the attempt persistence surface used by services.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	CompleteIfPending(ctx context.Context, id uuid.UUID, answers map[string]string, score int, completedAt time.Time, timeSpent int) (bool, error)
	MergeAnswers(ctx context.Context, id uuid.UUID, answers map[string]string) error
	FindPendingByUser(ctx context.Context, examID, userID uuid.UUID) (*model.Attempt, error)
	LatestCompleted(ctx context.Context, examID, userID uuid.UUID) (*model.Attempt, error)
	ListPending(ctx context.Context) ([]model.Attempt, error)
}

// ResultStore is the read-model surface over completed attempts.
type ResultStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResultRow, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamResultRow, error)
	GetLatestForUser(ctx context.Context, examID, userID uuid.UUID) (*model.ExamResultRow, error)
}
