package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/certlab/certlab-backend/internal/model"
)

// ErrExamNotPublished is returned when a session is requested against an
// exam that is not in the published state.
var ErrExamNotPublished = errors.New("exam not published")

// NotYetStartedError indicates the exam's window has not opened.
type NotYetStartedError struct {
	StartsAt time.Time
}

func (e *NotYetStartedError) Error() string {
	return fmt.Sprintf("exam is not yet available, starts at %s", e.StartsAt.Format(time.RFC3339))
}

// EndedError indicates the exam's window has closed.
type EndedError struct {
	EndedAt time.Time
}

func (e *EndedError) Error() string {
	return fmt.Sprintf("exam has ended at %s", e.EndedAt.Format(time.RFC3339))
}

// CheckAvailability decides whether an exam can be entered at the given
// instant. Checks run in window order: not-yet-started, ended, unpublished.
// A missing boundary never blocks entry.
func CheckAvailability(exam *model.Exam, now time.Time) error {
	if exam.StartDate != nil && now.Before(*exam.StartDate) {
		return &NotYetStartedError{StartsAt: *exam.StartDate}
	}
	if exam.EndDate != nil && now.After(*exam.EndDate) {
		return &EndedError{EndedAt: *exam.EndDate}
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}
	return nil
}
