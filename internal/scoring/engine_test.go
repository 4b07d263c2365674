package scoring

import (
	"reflect"
	"testing"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
)

func mcq(subjectID uuid.UUID, points int, correct ...string) model.Question {
	return model.Question{
		ID:             uuid.New(),
		SubjectID:      subjectID,
		Type:           model.QuestionTypeMultipleChoice,
		Options:        []string{"A", "B", "C", "D"},
		CorrectAnswers: correct,
		Points:         points,
	}
}

func textQ(subjectID uuid.UUID, qt model.QuestionType, points int, correct ...string) model.Question {
	return model.Question{
		ID:             uuid.New(),
		SubjectID:      subjectID,
		Type:           qt,
		CorrectAnswers: correct,
		Points:         points,
	}
}

func TestGradeQuestionMultipleChoiceCaseSensitive(t *testing.T) {
	q := mcq(uuid.New(), 5, "B")

	if got := GradeQuestion(q, "B"); got != 5 {
		t.Errorf("exact match: got %d points, want 5", got)
	}
	if got := GradeQuestion(q, "b"); got != 0 {
		t.Errorf("lowercase submission must score zero, got %d", got)
	}
	if got := GradeQuestion(q, "A"); got != 0 {
		t.Errorf("wrong option: got %d points, want 0", got)
	}
}

func TestGradeQuestionTrueFalse(t *testing.T) {
	q := model.Question{
		ID:             uuid.New(),
		Type:           model.QuestionTypeTrueFalse,
		Options:        model.TrueFalseOptions,
		CorrectAnswers: []string{"True"},
		Points:         2,
	}

	if got := GradeQuestion(q, "True"); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
	if got := GradeQuestion(q, "true"); got != 0 {
		t.Errorf("true/false is case-sensitive, got %d", got)
	}
}

func TestGradeQuestionFillBlankContainment(t *testing.T) {
	q := textQ(uuid.New(), model.QuestionTypeFillBlank, 3, "Paris")

	cases := []struct {
		answer string
		want   int
	}{
		{"Paris", 3},
		{"  paris  ", 3},
		{"paris is great", 3}, // answer contains the correct answer
		{"Par", 3},            // correct answer contains the answer
		{"London", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := GradeQuestion(q, tc.answer); got != tc.want {
			t.Errorf("fill_blank %q: got %d, want %d", tc.answer, got, tc.want)
		}
	}
}

func TestGradeQuestionShortAnswerNoContainment(t *testing.T) {
	q := textQ(uuid.New(), model.QuestionTypeShortAnswer, 4, "blue")

	if got := GradeQuestion(q, "BLUE  "); got != 4 {
		t.Errorf("normalized exact match: got %d, want 4", got)
	}
	if got := GradeQuestion(q, "light blue"); got != 0 {
		t.Errorf("short_answer must not use containment, got %d", got)
	}
}

func TestGradeQuestionMultipleAcceptedAnswers(t *testing.T) {
	q := textQ(uuid.New(), model.QuestionTypeShortAnswer, 1, "four", "4")

	if got := GradeQuestion(q, "4"); got != 1 {
		t.Errorf("second accepted phrasing: got %d, want 1", got)
	}
}

func TestScoreSubjectPassBoundary(t *testing.T) {
	subjectID := uuid.New()
	subject := model.Subject{ID: subjectID, Name: "Algebra", PassMark: 60}

	// 5 one-point questions: 3/5 = 60% exactly.
	questions := make([]model.Question, 5)
	answers := map[string]string{}
	for i := range questions {
		questions[i] = mcq(subjectID, 1, "A")
		if i < 3 {
			answers[questions[i].ID.String()] = "A"
		} else {
			answers[questions[i].ID.String()] = "B"
		}
	}

	sum := Score([]model.Subject{subject}, questions, answers, 0)
	if sum.Subjects[0].Percent != 60 {
		t.Fatalf("got %d%%, want 60%%", sum.Subjects[0].Percent)
	}
	if !sum.Subjects[0].Passed {
		t.Error("60% against pass mark 60 must pass (inclusive boundary)")
	}

	// Drop one more: 2/5 = 40% < 60.
	answers[questions[2].ID.String()] = "B"
	sum = Score([]model.Subject{subject}, questions, answers, 0)
	if sum.Subjects[0].Passed {
		t.Errorf("%d%% against pass mark 60 must fail", sum.Subjects[0].Percent)
	}
}

func TestScoreOverallPassUsesAveragedMark(t *testing.T) {
	s1 := model.Subject{ID: uuid.New(), Name: "Easy", PassMark: 40}
	s2 := model.Subject{ID: uuid.New(), Name: "Hard", PassMark: 80}

	// Four 1-point questions in Easy (all correct), one in Hard (wrong):
	// overall 4/5 = 80% >= avg(40,80)=60 → passes overall even though
	// the Hard subject itself fails at 0%.
	var questions []model.Question
	answers := map[string]string{}
	for i := 0; i < 4; i++ {
		q := mcq(s1.ID, 1, "A")
		answers[q.ID.String()] = "A"
		questions = append(questions, q)
	}
	hard := mcq(s2.ID, 1, "A")
	answers[hard.ID.String()] = "B"
	questions = append(questions, hard)

	sum := Score([]model.Subject{s1, s2}, questions, answers, 0)
	if sum.Score != 80 {
		t.Fatalf("got overall %d, want 80", sum.Score)
	}
	if !sum.Passed {
		t.Error("overall pass must use the averaged pass mark, not per-subject results")
	}
	if sum.Subjects[1].Passed {
		t.Error("Hard subject at 0% must fail individually")
	}
}

func TestScoreFrozenTotalIsDenominator(t *testing.T) {
	subjectID := uuid.New()
	subject := model.Subject{ID: subjectID, Name: "S", PassMark: 50}
	q := mcq(subjectID, 2, "A")
	answers := map[string]string{q.ID.String(): "A"}

	// total_points was frozen at 4 when the session started; a question
	// worth 2 was removed afterwards. 2/4 = 50.
	sum := Score([]model.Subject{subject}, []model.Question{q}, answers, 4)
	if sum.Score != 50 {
		t.Errorf("got %d, want 50", sum.Score)
	}
	if sum.TotalPoints != 4 {
		t.Errorf("got total %d, want frozen 4", sum.TotalPoints)
	}
}

func TestScoreIdempotent(t *testing.T) {
	subjectID := uuid.New()
	subject := model.Subject{ID: subjectID, Name: "S", PassMark: 60}
	questions := []model.Question{
		mcq(subjectID, 1, "A"),
		textQ(subjectID, model.QuestionTypeFillBlank, 2, "Paris"),
		textQ(subjectID, model.QuestionTypeShortAnswer, 3, "blue"),
	}
	answers := map[string]string{
		questions[0].ID.String(): "A",
		questions[1].ID.String(): "paris is great",
		questions[2].ID.String(): "light blue",
	}

	first := Score([]model.Subject{subject}, questions, answers, 0)
	second := Score([]model.Subject{subject}, questions, answers, 0)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("scoring is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScoreEmptyQuestionSet(t *testing.T) {
	sum := Score(nil, nil, nil, 0)
	if sum.Score != 0 || sum.TotalPoints != 0 {
		t.Errorf("empty exam must score 0, got %+v", sum)
	}
}

func TestScoreUnansweredQuestionsAbsent(t *testing.T) {
	subjectID := uuid.New()
	subject := model.Subject{ID: subjectID, Name: "S", PassMark: 60}
	q1 := mcq(subjectID, 1, "A")
	q2 := mcq(subjectID, 1, "A")

	// Only q1 answered; q2 absent from the map.
	sum := Score([]model.Subject{subject}, []model.Question{q1, q2}, map[string]string{q1.ID.String(): "A"}, 0)
	if sum.Score != 50 {
		t.Errorf("got %d, want 50", sum.Score)
	}
}
