package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeFillBlank      QuestionType = "fill_blank"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

// TrueFalseOptions is the forced option set for true_false questions.
var TrueFalseOptions = []string{"True", "False"}

// Question represents a single exam question.
type Question struct {
	ID             uuid.UUID    `json:"id"`
	SubjectID      uuid.UUID    `json:"subject_id"`
	Type           QuestionType `json:"type"`
	QuestionText   string       `json:"question_text"`
	Options        []string     `json:"options"`
	CorrectAnswers []string     `json:"correct_answers"`
	Points         int          `json:"points"`
	OrderIndex     int          `json:"order_index"`
	CreatedAt      time.Time    `json:"created_at"`
}

// CreateQuestionRequest is the payload for adding a question to a subject.
type CreateQuestionRequest struct {
	Type           string   `json:"type" binding:"required,oneof=multiple_choice true_false fill_blank short_answer"`
	QuestionText   string   `json:"question_text" binding:"required,min=1,max=2000"`
	Options        []string `json:"options" binding:"omitempty,dive,max=500"`
	CorrectAnswers []string `json:"correct_answers" binding:"required,min=1,dive,min=1,max=500"`
	Points         int      `json:"points" binding:"required,min=1,max=100"`
	OrderIndex     int      `json:"order_index" binding:"min=0"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Type           string   `json:"type" binding:"omitempty,oneof=multiple_choice true_false fill_blank short_answer"`
	QuestionText   string   `json:"question_text" binding:"omitempty,min=1,max=2000"`
	Options        []string `json:"options" binding:"omitempty,dive,max=500"`
	CorrectAnswers []string `json:"correct_answers" binding:"omitempty,min=1,dive,min=1,max=500"`
	Points         *int     `json:"points" binding:"omitempty,min=1,max=100"`
	OrderIndex     *int     `json:"order_index" binding:"omitempty,min=0"`
}
