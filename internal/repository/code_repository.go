package repository

import (
	"context"

	"github.com/certlab/certlab-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodeRepository handles access code data access.
type CodeRepository struct {
	pool *pgxpool.Pool
}

// NewCodeRepository creates a new CodeRepository.
func NewCodeRepository(pool *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{pool: pool}
}

// FindRedeemable looks up an unused code row for the given token and exam.
// Duplicate tokens resolve to the oldest row so redemption is deterministic.
// Expiry and email binding are checked by the caller, not here.
func (r *CodeRepository) FindRedeemable(ctx context.Context, examID uuid.UUID, code string) (*model.ExamCode, error) {
	c := &model.ExamCode{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, code, user_email, used, expires_at, created_at
		 FROM exam_codes
		 WHERE code = $1 AND exam_id = $2 AND used = false
		 ORDER BY created_at
		 LIMIT 1`, code, examID,
	).Scan(&c.ID, &c.ExamID, &c.Code, &c.UserEmail, &c.Used, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a code by its UUID.
func (r *CodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamCode, error) {
	c := &model.ExamCode{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, code, user_email, used, expires_at, created_at
		 FROM exam_codes WHERE id = $1`, id,
	).Scan(&c.ID, &c.ExamID, &c.Code, &c.UserEmail, &c.Used, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByExam retrieves all codes minted for an exam, newest first.
func (r *CodeRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamCode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, code, user_email, used, expires_at, created_at
		 FROM exam_codes WHERE exam_id = $1
		 ORDER BY created_at DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []model.ExamCode
	for rows.Next() {
		var c model.ExamCode
		if err := rows.Scan(&c.ID, &c.ExamID, &c.Code, &c.UserEmail, &c.Used, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// Create inserts a single code.
func (r *CodeRepository) Create(ctx context.Context, c *model.ExamCode) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_codes (exam_id, code, user_email, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, used, created_at`,
		c.ExamID, c.Code, c.UserEmail, c.ExpiresAt,
	).Scan(&c.ID, &c.Used, &c.CreatedAt)
}

// CreateBatch inserts many codes with one round trip per row inside a single
// transaction, so a bulk mint is all-or-nothing.
func (r *CodeRepository) CreateBatch(ctx context.Context, codes []model.ExamCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range codes {
		c := &codes[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO exam_codes (exam_id, code, user_email, expires_at)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, used, created_at`,
			c.ExamID, c.Code, c.UserEmail, c.ExpiresAt,
		).Scan(&c.ID, &c.Used, &c.CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Consume flips a code to used. The used=false guard makes the flip
// first-writer-wins; it returns false when the code was already consumed.
func (r *CodeRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_codes SET used = true WHERE id = $1 AND used = false`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes an unused code. Used codes are kept for the audit trail.
func (r *CodeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM exam_codes WHERE id = $1 AND used = false`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
