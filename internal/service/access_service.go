package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/model"
)

var (
	// ErrEmptyCode is returned when the submitted code is blank.
	ErrEmptyCode = errors.New("access code is empty")
	// ErrInvalidOrUsedCode is returned when no unused row matches the code
	// and exam. The caller cannot distinguish wrong from consumed.
	ErrInvalidOrUsedCode = errors.New("invalid or already used access code")
	// ErrCodeExpired is returned when the matched code is past its expiry.
	ErrCodeExpired = errors.New("access code expired")
	// ErrCodeNotAssigned is returned when the code is bound to a different
	// email than the redeeming account.
	ErrCodeNotAssigned = errors.New("access code not assigned to this account")
	// ErrAccountNotProvisioned is returned when the redeeming account has no
	// profile row.
	ErrAccountNotProvisioned = errors.New("account not provisioned")
)

// AccessService guards entry into exam sessions. Redemption runs a fixed
// sequence of checks and reports only the first failure, so an expired code
// never leaks whether its email binding matched.
type AccessService struct {
	codes    CodeStore
	profiles ProfileStore
	log      zerolog.Logger
}

// NewAccessService creates an AccessService.
func NewAccessService(codes CodeStore, profiles ProfileStore, log zerolog.Logger) *AccessService {
	return &AccessService{
		codes:    codes,
		profiles: profiles,
		log:      log.With().Str("component", "access_service").Logger(),
	}
}

// Redeem validates an access code for the given exam and account email.
// The raw input is trimmed and uppercased first (codes are minted uppercase,
// takers type freely). Check order: blank, existence (unused row for this
// exam), expiry, email binding, profile provisioning. Email comparison is
// exact, including case. The code row is NOT consumed here; consumption
// happens at submission.
func (s *AccessService) Redeem(ctx context.Context, examID uuid.UUID, rawCode, userEmail string) (*model.ExamCode, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, ErrEmptyCode
	}

	row, err := s.codes.FindRedeemable(ctx, examID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidOrUsedCode
		}
		return nil, err
	}

	if row.ExpiresAt != nil && row.ExpiresAt.Before(time.Now()) {
		return nil, ErrCodeExpired
	}

	if row.UserEmail != userEmail {
		s.log.Warn().
			Str("exam_id", examID.String()).
			Str("code_id", row.ID.String()).
			Msg("Code redemption attempted by unassigned account")
		return nil, ErrCodeNotAssigned
	}

	if _, err := s.profiles.GetByEmail(ctx, userEmail); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotProvisioned
		}
		return nil, err
	}

	return row, nil
}
