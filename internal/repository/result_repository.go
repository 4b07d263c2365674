package repository

import (
	"context"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository reads the denormalized exam_results_view.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, exam_id, user_id, code_id, score, total_points,
	started_at, completed_at, time_spent, exam_title, exam_description,
	show_results, user_email, user_name, passed`

func scanResult(row interface{ Scan(...any) error }, res *model.ExamResultRow) error {
	return row.Scan(&res.ID, &res.ExamID, &res.UserID, &res.CodeID, &res.Score,
		&res.TotalPoints, &res.StartedAt, &res.CompletedAt, &res.TimeSpent,
		&res.ExamTitle, &res.ExamDesc, &res.ShowResults, &res.UserEmail,
		&res.UserName, &res.Passed)
}

// ListByExam returns all completed results for an exam, newest first.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM exam_results_view
		 WHERE exam_id = $1
		 ORDER BY completed_at DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResultRow
	for rows.Next() {
		var res model.ExamResultRow
		if err := scanResult(rows, &res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListByUser returns a user's completed results across all exams, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM exam_results_view
		 WHERE user_id = $1
		 ORDER BY completed_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResultRow
	for rows.Next() {
		var res model.ExamResultRow
		if err := scanResult(rows, &res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// GetLatestForUser returns the user's most recent completed result for an exam.
func (r *ResultRepository) GetLatestForUser(ctx context.Context, examID, userID uuid.UUID) (*model.ExamResultRow, error) {
	res := &model.ExamResultRow{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results_view
		 WHERE exam_id = $1 AND user_id = $2
		 ORDER BY completed_at DESC
		 LIMIT 1`, examID, userID,
	)
	if err := scanResult(row, res); err != nil {
		return nil, err
	}
	return res, nil
}
