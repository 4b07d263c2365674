package repository

import (
	"context"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubjectRepository handles subject data access.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// ListByExam retrieves all subjects of an exam in stable traversal order.
func (r *SubjectRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, name, time_limit, pass_mark, order_index, created_at
		 FROM subjects WHERE exam_id = $1
		 ORDER BY order_index, created_at`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.ExamID, &s.Name, &s.TimeLimit, &s.PassMark, &s.OrderIndex, &s.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// GetByID retrieves a subject by its UUID.
func (r *SubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, name, time_limit, pass_mark, order_index, created_at
		 FROM subjects WHERE id = $1`, id,
	).Scan(&s.ID, &s.ExamID, &s.Name, &s.TimeLimit, &s.PassMark, &s.OrderIndex, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (exam_id, name, time_limit, pass_mark, order_index)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.ExamID, s.Name, s.TimeLimit, s.PassMark, s.OrderIndex,
	).Scan(&s.ID, &s.CreatedAt)
}

// Update modifies an existing subject.
func (r *SubjectRepository) Update(ctx context.Context, s *model.Subject) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE subjects
		 SET name = $1, time_limit = $2, pass_mark = $3, order_index = $4
		 WHERE id = $5`,
		s.Name, s.TimeLimit, s.PassMark, s.OrderIndex, s.ID,
	)
	return err
}

// Delete removes a subject (cascades to its questions).
func (r *SubjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	return err
}
