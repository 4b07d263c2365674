package repository

import (
	"context"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySubject retrieves a subject's questions ordered by order_index.
func (r *QuestionRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, type, question_text, options, correct_answers, points, order_index, created_at
		 FROM questions WHERE subject_id = $1
		 ORDER BY order_index, created_at`, subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// ListByExam retrieves every question of an exam across all subjects, in
// subject order then question order. This is the stable unshuffled sequence.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.subject_id, q.type, q.question_text, q.options, q.correct_answers,
		        q.points, q.order_index, q.created_at
		 FROM questions q
		 JOIN subjects s ON q.subject_id = s.id
		 WHERE s.exam_id = $1
		 ORDER BY s.order_index, s.created_at, q.order_index, q.created_at`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// GetByID retrieves a question by its UUID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, type, question_text, options, correct_answers, points, order_index, created_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.SubjectID, &q.Type, &q.QuestionText, &q.Options, &q.CorrectAnswers, &q.Points, &q.OrderIndex, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (subject_id, type, question_text, options, correct_answers, points, order_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		q.SubjectID, q.Type, q.QuestionText, q.Options, q.CorrectAnswers, q.Points, q.OrderIndex,
	).Scan(&q.ID, &q.CreatedAt)
}

// Update modifies an existing question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET type = $1, question_text = $2, options = $3, correct_answers = $4,
		     points = $5, order_index = $6
		 WHERE id = $7`,
		q.Type, q.QuestionText, q.Options, q.CorrectAnswers, q.Points, q.OrderIndex, q.ID,
	)
	return err
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

type pgxRows interface {
	Next() bool
	Scan(...any) error
	Err() error
}

func collectQuestions(rows pgxRows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SubjectID, &q.Type, &q.QuestionText, &q.Options, &q.CorrectAnswers, &q.Points, &q.OrderIndex, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
