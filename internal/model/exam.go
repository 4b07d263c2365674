package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
	ExamStatusArchived  ExamStatus = "archived"
)

// DefaultTimeLimitMinutes applies when an exam has no time limit set.
const DefaultTimeLimitMinutes = 60

// Exam represents an exam entity.
type Exam struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	CreatorID        uuid.UUID  `json:"creator_id"`
	Status           ExamStatus `json:"status"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	TimeLimit        *int       `json:"time_limit,omitempty"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShowResults      bool       `json:"show_results"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TimeLimitMinutes returns the effective time limit for a session.
func (e *Exam) TimeLimitMinutes() int {
	if e.TimeLimit == nil || *e.TimeLimit <= 0 {
		return DefaultTimeLimitMinutes
	}
	return *e.TimeLimit
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title            string     `json:"title" binding:"required,min=1,max=255"`
	Description      *string    `json:"description" binding:"omitempty,max=2000"`
	StartDate        *time.Time `json:"start_date" binding:"omitempty"`
	EndDate          *time.Time `json:"end_date" binding:"omitempty"`
	TimeLimit        *int       `json:"time_limit" binding:"omitempty,min=1,max=480"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShowResults      *bool      `json:"show_results"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title            string     `json:"title" binding:"omitempty,min=1,max=255"`
	Description      *string    `json:"description" binding:"omitempty,max=2000"`
	StartDate        *time.Time `json:"start_date" binding:"omitempty"`
	EndDate          *time.Time `json:"end_date" binding:"omitempty"`
	TimeLimit        *int       `json:"time_limit" binding:"omitempty,min=1,max=480"`
	ShuffleQuestions *bool      `json:"shuffle_questions" binding:"omitempty"`
	ShowResults      *bool      `json:"show_results" binding:"omitempty"`
}

// ExamPaper is the Redis-cached payload sent to test-takers (no correct answers).
type ExamPaper struct {
	ExamID           uuid.UUID      `json:"exam_id"`
	Title            string         `json:"title"`
	Description      *string        `json:"description,omitempty"`
	TimeLimit        int            `json:"time_limit"`
	ShuffleQuestions bool           `json:"shuffle_questions"`
	ShowResults      bool           `json:"show_results"`
	Subjects         []PaperSubject `json:"subjects"`
}

// PaperSubject is a subject as seen by a test-taker.
type PaperSubject struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	TimeLimit  *int            `json:"time_limit,omitempty"`
	PassMark   int             `json:"pass_mark"`
	OrderIndex int             `json:"order_index"`
	Questions  []PaperQuestion `json:"questions"`
}

// PaperQuestion is a question without its correct answers.
type PaperQuestion struct {
	ID           uuid.UUID    `json:"id"`
	Type         QuestionType `json:"type"`
	QuestionText string       `json:"question_text"`
	Options      []string     `json:"options"`
	Points       int          `json:"points"`
	OrderIndex   int          `json:"order_index"`
}
