package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPassMark applies when a subject has no explicit pass mark.
const DefaultPassMark = 60

// Subject is a named grouping of questions within an exam. Its time limit is
// informational only; the session clock runs on the exam-level limit.
type Subject struct {
	ID         uuid.UUID `json:"id"`
	ExamID     uuid.UUID `json:"exam_id"`
	Name       string    `json:"name"`
	TimeLimit  *int      `json:"time_limit,omitempty"`
	PassMark   int       `json:"pass_mark"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateSubjectRequest is the payload for adding a subject to an exam.
type CreateSubjectRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	TimeLimit  *int   `json:"time_limit" binding:"omitempty,min=1,max=480"`
	PassMark   *int   `json:"pass_mark" binding:"omitempty,min=0,max=100"`
	OrderIndex int    `json:"order_index" binding:"min=0"`
}

// UpdateSubjectRequest is the payload for updating a subject.
type UpdateSubjectRequest struct {
	Name       string `json:"name" binding:"omitempty,min=1,max=100"`
	TimeLimit  *int   `json:"time_limit" binding:"omitempty,min=1,max=480"`
	PassMark   *int   `json:"pass_mark" binding:"omitempty,min=0,max=100"`
	OrderIndex *int   `json:"order_index" binding:"omitempty,min=0"`
}
