package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/model"
)

type fakeCodeStore struct {
	codes    []model.ExamCode
	consumed map[uuid.UUID]bool
}

func (f *fakeCodeStore) FindRedeemable(_ context.Context, examID uuid.UUID, code string) (*model.ExamCode, error) {
	var match *model.ExamCode
	for i := range f.codes {
		c := &f.codes[i]
		if c.Code == code && c.ExamID == examID && !c.Used {
			if match == nil || c.CreatedAt.Before(match.CreatedAt) {
				match = c
			}
		}
	}
	if match == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *match
	return &cp, nil
}

func (f *fakeCodeStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamCode, error) {
	for i := range f.codes {
		if f.codes[i].ID == id {
			cp := f.codes[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCodeStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.ExamCode, error) {
	var out []model.ExamCode
	for _, c := range f.codes {
		if c.ExamID == examID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCodeStore) Create(_ context.Context, c *model.ExamCode) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	f.codes = append(f.codes, *c)
	return nil
}

func (f *fakeCodeStore) CreateBatch(ctx context.Context, codes []model.ExamCode) error {
	for i := range codes {
		if err := f.Create(ctx, &codes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCodeStore) Consume(_ context.Context, id uuid.UUID) (bool, error) {
	for i := range f.codes {
		if f.codes[i].ID == id {
			if f.codes[i].Used {
				return false, nil
			}
			f.codes[i].Used = true
			if f.consumed == nil {
				f.consumed = map[uuid.UUID]bool{}
			}
			f.consumed[id] = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCodeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	for i := range f.codes {
		if f.codes[i].ID == id {
			if f.codes[i].Used {
				return false, nil
			}
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeProfileStore struct {
	profiles []model.Profile
}

func (f *fakeProfileStore) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			cp := f.profiles[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfileStore) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	for i := range f.profiles {
		if f.profiles[i].Email == email {
			cp := f.profiles[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfileStore) Create(_ context.Context, p *model.Profile) error {
	p.ID = uuid.New()
	f.profiles = append(f.profiles, *p)
	return nil
}

func newAccessFixture(t *testing.T) (*AccessService, *fakeCodeStore, uuid.UUID) {
	t.Helper()
	examID := uuid.New()
	codes := &fakeCodeStore{
		codes: []model.ExamCode{{
			ID:        uuid.New(),
			ExamID:    examID,
			Code:      "ABC12345",
			UserEmail: "a@x.com",
			CreatedAt: time.Now(),
		}},
	}
	profiles := &fakeProfileStore{
		profiles: []model.Profile{{ID: uuid.New(), Email: "a@x.com", Role: model.RoleUser}},
	}
	return NewAccessService(codes, profiles, zerolog.Nop()), codes, examID
}

func TestRedeemHappyPath(t *testing.T) {
	svc, _, examID := newAccessFixture(t)

	code, err := svc.Redeem(context.Background(), examID, "ABC12345", "a@x.com")
	if err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}
	if code.Code != "ABC12345" {
		t.Errorf("expected code ABC12345, got %s", code.Code)
	}
	if code.Used {
		t.Error("redeeming must not consume the code")
	}
}

func TestRedeemTrimsWhitespace(t *testing.T) {
	svc, _, examID := newAccessFixture(t)

	if _, err := svc.Redeem(context.Background(), examID, "  ABC12345  ", "a@x.com"); err != nil {
		t.Fatalf("Redeem with padded code returned error: %v", err)
	}
}

func TestRedeemUppercasesInput(t *testing.T) {
	// Codes are minted uppercase; a taker typing lowercase must still get in.
	svc, _, examID := newAccessFixture(t)

	code, err := svc.Redeem(context.Background(), examID, "abc12345", "a@x.com")
	if err != nil {
		t.Fatalf("Redeem with lowercase input returned error: %v", err)
	}
	if code.Code != "ABC12345" {
		t.Errorf("expected the uppercase row to match, got %s", code.Code)
	}
}

func TestRedeemEmptyCode(t *testing.T) {
	svc, _, examID := newAccessFixture(t)

	if _, err := svc.Redeem(context.Background(), examID, "   ", "a@x.com"); !errors.Is(err, ErrEmptyCode) {
		t.Errorf("expected ErrEmptyCode, got %v", err)
	}
}

func TestRedeemUnknownCode(t *testing.T) {
	svc, _, examID := newAccessFixture(t)

	if _, err := svc.Redeem(context.Background(), examID, "NOPE0000", "a@x.com"); !errors.Is(err, ErrInvalidOrUsedCode) {
		t.Errorf("expected ErrInvalidOrUsedCode, got %v", err)
	}
}

func TestRedeemWrongExam(t *testing.T) {
	svc, _, _ := newAccessFixture(t)

	if _, err := svc.Redeem(context.Background(), uuid.New(), "ABC12345", "a@x.com"); !errors.Is(err, ErrInvalidOrUsedCode) {
		t.Errorf("expected ErrInvalidOrUsedCode for other exam, got %v", err)
	}
}

func TestRedeemUsedCode(t *testing.T) {
	svc, codes, examID := newAccessFixture(t)
	codes.codes[0].Used = true

	if _, err := svc.Redeem(context.Background(), examID, "ABC12345", "a@x.com"); !errors.Is(err, ErrInvalidOrUsedCode) {
		t.Errorf("expected ErrInvalidOrUsedCode for used code, got %v", err)
	}
}

func TestRedeemExpiredCode(t *testing.T) {
	svc, codes, examID := newAccessFixture(t)
	past := time.Now().Add(-time.Hour)
	codes.codes[0].ExpiresAt = &past

	if _, err := svc.Redeem(context.Background(), examID, "ABC12345", "a@x.com"); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("expected ErrCodeExpired, got %v", err)
	}
}

func TestRedeemExpiryCheckedBeforeEmail(t *testing.T) {
	// An expired code bound to a different email must report expiry, not
	// the binding mismatch.
	svc, codes, examID := newAccessFixture(t)
	past := time.Now().Add(-time.Minute)
	codes.codes[0].ExpiresAt = &past

	if _, err := svc.Redeem(context.Background(), examID, "ABC12345", "someone-else@x.com"); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("expected ErrCodeExpired, got %v", err)
	}
}

func TestRedeemEmailBindingIsCaseSensitive(t *testing.T) {
	svc, _, examID := newAccessFixture(t)

	if _, err := svc.Redeem(context.Background(), examID, "ABC12345", "A@X.com"); !errors.Is(err, ErrCodeNotAssigned) {
		t.Errorf("expected ErrCodeNotAssigned for case-mismatched email, got %v", err)
	}
}

func TestRedeemUnprovisionedAccount(t *testing.T) {
	examID := uuid.New()
	codes := &fakeCodeStore{
		codes: []model.ExamCode{{
			ID:        uuid.New(),
			ExamID:    examID,
			Code:      "ABC12345",
			UserEmail: "ghost@x.com",
			CreatedAt: time.Now(),
		}},
	}
	svc := NewAccessService(codes, &fakeProfileStore{}, zerolog.Nop())

	if _, err := svc.Redeem(context.Background(), examID, "ABC12345", "ghost@x.com"); !errors.Is(err, ErrAccountNotProvisioned) {
		t.Errorf("expected ErrAccountNotProvisioned, got %v", err)
	}
}

func TestRedeemDuplicateCodesOldestWins(t *testing.T) {
	svc, codes, examID := newAccessFixture(t)
	codes.codes = append(codes.codes, model.ExamCode{
		ID:        uuid.New(),
		ExamID:    examID,
		Code:      "ABC12345",
		UserEmail: "b@x.com",
		CreatedAt: time.Now().Add(time.Minute),
	})

	code, err := svc.Redeem(context.Background(), examID, "ABC12345", "a@x.com")
	if err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}
	if code.UserEmail != "a@x.com" {
		t.Errorf("expected the oldest row to win, got binding %s", code.UserEmail)
	}
}
