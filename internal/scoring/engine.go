// Package scoring grades recorded answers against an exam's question set.
// Everything here is pure: identical inputs always produce identical output.
package scoring

import (
	"math"
	"strings"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
)

// SubjectResult is the scored outcome for one subject, evaluated against only
// that subject's questions. Passed uses an inclusive boundary.
type SubjectResult struct {
	SubjectID    uuid.UUID `json:"subject_id"`
	Name         string    `json:"name"`
	PassMark     int       `json:"pass_mark"`
	Percent      int       `json:"percent"`
	EarnedPoints int       `json:"earned_points"`
	TotalPoints  int       `json:"total_points"`
	Passed       bool      `json:"passed"`
}

// Summary is the full scored outcome of an attempt.
//
// Passed is decoupled from the per-subject results: it compares the overall
// rounded score against the mean of the subject pass marks, so an attempt can
// pass overall while failing individual subjects and vice versa.
type Summary struct {
	Score        int             `json:"score"`
	EarnedPoints int             `json:"earned_points"`
	TotalPoints  int             `json:"total_points"`
	Passed       bool            `json:"passed"`
	Subjects     []SubjectResult `json:"subjects"`
}

// GradeQuestion returns the points awarded for a single recorded answer.
// Grading is all-or-nothing per question:
//
//   - multiple_choice / true_false: full points iff the answer is a member of
//     the correct set, compared case-sensitively.
//   - fill_blank: full points iff, after trimming and lowercasing both sides,
//     the answer equals a correct answer or either string contains the other.
//   - short_answer: full points iff the trimmed, lowercased answer exactly
//     equals a trimmed, lowercased correct answer. No containment leniency.
func GradeQuestion(q model.Question, answer string) int {
	if answer == "" {
		return 0
	}

	switch q.Type {
	case model.QuestionTypeMultipleChoice, model.QuestionTypeTrueFalse:
		for _, correct := range q.CorrectAnswers {
			if answer == correct {
				return q.Points
			}
		}

	case model.QuestionTypeFillBlank:
		got := normalize(answer)
		for _, correct := range q.CorrectAnswers {
			want := normalize(correct)
			if got == want || strings.Contains(want, got) || strings.Contains(got, want) {
				return q.Points
			}
		}

	case model.QuestionTypeShortAnswer:
		got := normalize(answer)
		for _, correct := range q.CorrectAnswers {
			if got == normalize(correct) {
				return q.Points
			}
		}
	}

	return 0
}

// Score grades every question and aggregates into exam-level and per-subject
// percentages. Subjects are reported in their given order; each subject's
// percentage is rounded independently of the exam-level score.
//
// frozenTotal is the attempt's total_points recorded at session start. When
// positive it is the denominator of the exam-level percentage, so questions
// added or removed mid-session cannot shift a running attempt's scale. Pass
// zero to use the current question set's sum.
func Score(subjects []model.Subject, questions []model.Question, answers map[string]string, frozenTotal int) Summary {
	earned := 0
	total := 0
	bySubject := make(map[uuid.UUID][]model.Question, len(subjects))

	for _, q := range questions {
		total += q.Points
		earned += GradeQuestion(q, answers[q.ID.String()])
		bySubject[q.SubjectID] = append(bySubject[q.SubjectID], q)
	}

	if frozenTotal > 0 {
		total = frozenTotal
	}

	summary := Summary{
		Score:        percent(earned, total),
		EarnedPoints: earned,
		TotalPoints:  total,
		Subjects:     make([]SubjectResult, 0, len(subjects)),
	}

	passMarkSum := 0
	for _, s := range subjects {
		subEarned := 0
		subTotal := 0
		for _, q := range bySubject[s.ID] {
			subTotal += q.Points
			subEarned += GradeQuestion(q, answers[q.ID.String()])
		}

		subPercent := percent(subEarned, subTotal)
		summary.Subjects = append(summary.Subjects, SubjectResult{
			SubjectID:    s.ID,
			Name:         s.Name,
			PassMark:     s.PassMark,
			Percent:      subPercent,
			EarnedPoints: subEarned,
			TotalPoints:  subTotal,
			Passed:       subPercent >= s.PassMark,
		})
		passMarkSum += s.PassMark
	}

	summary.Passed = float64(summary.Score) >= OverallPassMark(subjects, passMarkSum)
	return summary
}

// OverallPassMark is the averaged bar the exam-level score must clear:
// mean of the subject pass marks, or the default when there are no subjects.
func OverallPassMark(subjects []model.Subject, passMarkSum int) float64 {
	if len(subjects) == 0 {
		return float64(model.DefaultPassMark)
	}
	return float64(passMarkSum) / float64(len(subjects))
}

func percent(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(earned) / float64(total) * 100))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
