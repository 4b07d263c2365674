package repository

import (
	"context"
	"time"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, exam_id, user_id, code_id, answers, score, total_points,
	started_at, completed_at, time_spent`

func scanAttempt(row interface{ Scan(...any) error }, a *model.Attempt) error {
	return row.Scan(&a.ID, &a.ExamID, &a.UserID, &a.CodeID, &a.Answers, &a.Score,
		&a.TotalPoints, &a.StartedAt, &a.CompletedAt, &a.TimeSpent)
}

// Create inserts a new attempt with its frozen point total.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (exam_id, user_id, code_id, answers, total_points, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.ExamID, a.UserID, a.CodeID, a.Answers, a.TotalPoints, a.StartedAt,
	).Scan(&a.ID)
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1`, id)
	if err := scanAttempt(row, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CompleteIfPending finalizes an attempt: answers, score and completion time
// land in one statement guarded by completed_at IS NULL, so concurrent
// submissions (manual racing the timer) settle to exactly one winner.
// Returns false when the attempt was already completed.
func (r *AttemptRepository) CompleteIfPending(ctx context.Context, id uuid.UUID, answers map[string]string, score int, completedAt time.Time, timeSpent int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET answers = $1, score = $2, completed_at = $3, time_spent = $4
		 WHERE id = $5 AND completed_at IS NULL`,
		answers, score, completedAt, timeSpent, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MergeAnswers folds autosaved answers into the attempt's jsonb column
// without touching completion fields. No-op once the attempt is completed.
func (r *AttemptRepository) MergeAnswers(ctx context.Context, id uuid.UUID, answers map[string]string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET answers = answers || $1
		 WHERE id = $2 AND completed_at IS NULL`,
		answers, id,
	)
	return err
}

// FindPendingByUser returns the user's open attempt for an exam, if any.
func (r *AttemptRepository) FindPendingByUser(ctx context.Context, examID, userID uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE exam_id = $1 AND user_id = $2 AND completed_at IS NULL
		 ORDER BY started_at DESC
		 LIMIT 1`, examID, userID,
	)
	if err := scanAttempt(row, a); err != nil {
		return nil, err
	}
	return a, nil
}

// LatestCompleted returns the user's most recent completed attempt for an exam.
func (r *AttemptRepository) LatestCompleted(ctx context.Context, examID, userID uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE exam_id = $1 AND user_id = $2 AND completed_at IS NOT NULL
		 ORDER BY completed_at DESC
		 LIMIT 1`, examID, userID,
	)
	if err := scanAttempt(row, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListPending returns every open attempt. Used at boot to re-arm session
// timers lost in a restart.
func (r *AttemptRepository) ListPending(ctx context.Context) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE completed_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
