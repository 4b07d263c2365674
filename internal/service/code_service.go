package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/config"
	"github.com/certlab/certlab-backend/internal/mailer"
	"github.com/certlab/certlab-backend/internal/model"
)

// codeAlphabet excludes nothing; codes are uppercase alphanumeric and users
// paste them, so ambiguous glyphs are acceptable.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeIssueResult reports one minted code and whether its email went out.
type CodeIssueResult struct {
	Code      model.ExamCode `json:"code"`
	EmailSent bool           `json:"email_sent"`
	EmailErr  string         `json:"email_error,omitempty"`
}

// CodeService mints, lists and revokes access codes, and dispatches
// invitation email. Email failure never rolls back a minted code.
type CodeService struct {
	codes  CodeStore
	exams  ExamStore
	mailer mailer.Mailer
	cfg    *config.Config
	log    zerolog.Logger
}

// NewCodeService creates a CodeService.
func NewCodeService(codes CodeStore, exams ExamStore, m mailer.Mailer, cfg *config.Config, log zerolog.Logger) *CodeService {
	return &CodeService{
		codes:  codes,
		exams:  exams,
		mailer: m,
		cfg:    cfg,
		log:    log.With().Str("component", "code_service").Logger(),
	}
}

// randomCode draws a fixed-length uppercase alphanumeric token from
// crypto/rand.
func randomCode() (string, error) {
	buf := make([]byte, model.CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func (s *CodeService) ownedExam(ctx context.Context, examID, creatorID uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if e.CreatorID != creatorID {
		return nil, ErrNotExamCreator
	}
	return e, nil
}

// Generate mints one code bound to one email for an owned exam.
func (s *CodeService) Generate(ctx context.Context, examID, creatorID uuid.UUID, req *model.GenerateCodeRequest) (*CodeIssueResult, error) {
	e, err := s.ownedExam(ctx, examID, creatorID)
	if err != nil {
		return nil, err
	}

	token, err := randomCode()
	if err != nil {
		return nil, err
	}

	c := model.ExamCode{
		ExamID:    examID,
		Code:      token,
		UserEmail: req.UserEmail,
		ExpiresAt: req.ExpiresAt,
	}
	if err := s.codes.Create(ctx, &c); err != nil {
		return nil, err
	}

	result := &CodeIssueResult{Code: c}
	if req.SendEmail {
		s.deliver(ctx, e, &c, result)
	}
	return result, nil
}

// GenerateBulk mints one code per email in a single transaction, then
// dispatches invitations individually.
func (s *CodeService) GenerateBulk(ctx context.Context, examID, creatorID uuid.UUID, req *model.GenerateBulkCodesRequest) ([]CodeIssueResult, error) {
	e, err := s.ownedExam(ctx, examID, creatorID)
	if err != nil {
		return nil, err
	}

	codes := make([]model.ExamCode, 0, len(req.Emails))
	for _, email := range req.Emails {
		token, err := randomCode()
		if err != nil {
			return nil, err
		}
		codes = append(codes, model.ExamCode{
			ExamID:    examID,
			Code:      token,
			UserEmail: email,
			ExpiresAt: req.ExpiresAt,
		})
	}

	if err := s.codes.CreateBatch(ctx, codes); err != nil {
		return nil, err
	}

	results := make([]CodeIssueResult, len(codes))
	for i := range codes {
		results[i] = CodeIssueResult{Code: codes[i]}
		if req.SendEmail {
			s.deliver(ctx, e, &codes[i], &results[i])
		}
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("count", len(codes)).
		Msg("Bulk codes generated")
	return results, nil
}

// List returns an exam's codes for its creator.
func (s *CodeService) List(ctx context.Context, examID, creatorID uuid.UUID) ([]model.ExamCode, error) {
	if _, err := s.ownedExam(ctx, examID, creatorID); err != nil {
		return nil, err
	}
	return s.codes.ListByExam(ctx, examID)
}

// Revoke deletes an unused code. Returns false when the code was already
// consumed and therefore kept.
func (s *CodeService) Revoke(ctx context.Context, codeID, creatorID uuid.UUID) (bool, error) {
	c, err := s.codes.GetByID(ctx, codeID)
	if err != nil {
		return false, err
	}
	if _, err := s.ownedExam(ctx, c.ExamID, creatorID); err != nil {
		return false, err
	}
	return s.codes.Delete(ctx, codeID)
}

// TakeURL builds the invitation link a recipient follows to enter the exam.
func (s *CodeService) TakeURL(examID uuid.UUID, code string) string {
	return fmt.Sprintf("%s/exam/%s/take?code=%s",
		s.cfg.AppBaseURL, examID.String(), url.QueryEscape(code))
}

func (s *CodeService) deliver(ctx context.Context, e *model.Exam, c *model.ExamCode, result *CodeIssueResult) {
	link := s.TakeURL(e.ID, c.Code)
	body := fmt.Sprintf(
		`<p>You have been invited to take <strong>%s</strong>.</p>
<p>Your access code: <strong>%s</strong></p>
<p><a href="%s">Start the exam</a></p>`,
		e.Title, c.Code, link)

	if err := s.mailer.Send(ctx, c.UserEmail, "Your exam access code", body); err != nil {
		s.log.Error().Err(err).
			Str("exam_id", e.ID.String()).
			Str("code_id", c.ID.String()).
			Msg("Invitation email failed")
		result.EmailErr = err.Error()
		return
	}
	result.EmailSent = true
}
