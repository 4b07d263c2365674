package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one user's single timed run through an exam, created at session
// start and mutated exactly once at submission.
type Attempt struct {
	ID          uuid.UUID         `json:"id"`
	ExamID      uuid.UUID         `json:"exam_id"`
	UserID      uuid.UUID         `json:"user_id"`
	CodeID      uuid.UUID         `json:"code_id"`
	Answers     map[string]string `json:"answers"`
	Score       *int              `json:"score,omitempty"`
	TotalPoints int               `json:"total_points"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	TimeSpent   *int              `json:"time_spent,omitempty"`
}

// Completed reports whether the attempt has been submitted.
func (a *Attempt) Completed() bool {
	return a.CompletedAt != nil
}

// AttemptState is returned to a reloading client: the autosaved answers plus
// the remaining seconds on the session clock.
type AttemptState struct {
	AttemptID        uuid.UUID         `json:"attempt_id"`
	ExamID           uuid.UUID         `json:"exam_id"`
	QuestionOrder    []string          `json:"question_order"`
	AutosavedAnswers map[string]string `json:"autosaved_answers"`
	RemainingSeconds int               `json:"remaining_seconds"`
}

// SaveAnswerRequest records one answer for one question.
type SaveAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Answer     string `json:"answer" binding:"required,max=2000"`
}

// StartAttemptRequest carries the verified access code into session start.
type StartAttemptRequest struct {
	Code string `json:"code" binding:"required,min=1,max=32"`
}

// ExamResultRow is one row of the exam_results_view read model.
type ExamResultRow struct {
	ID          uuid.UUID  `json:"id"`
	ExamID      uuid.UUID  `json:"exam_id"`
	UserID      uuid.UUID  `json:"user_id"`
	CodeID      uuid.UUID  `json:"code_id"`
	Score       *int       `json:"score"`
	TotalPoints int        `json:"total_points"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	TimeSpent   *int       `json:"time_spent"`
	ExamTitle   string     `json:"exam_title"`
	ExamDesc    *string    `json:"exam_description"`
	ShowResults bool       `json:"show_results"`
	UserEmail   string     `json:"user_email"`
	UserName    *string    `json:"user_name"`
	Passed      *bool      `json:"passed"`
}
