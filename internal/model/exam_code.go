package model

import (
	"time"

	"github.com/google/uuid"
)

// CodeLength is the fixed length of access code tokens.
const CodeLength = 8

// ExamCode is a single-use, email-bound token granting one person entry to
// one exam. It flips used=false→true exactly once, at successful submission.
type ExamCode struct {
	ID        uuid.UUID  `json:"id"`
	ExamID    uuid.UUID  `json:"exam_id"`
	Code      string     `json:"code"`
	UserEmail string     `json:"user_email"`
	Used      bool       `json:"used"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Redeemable reports whether the code can still be redeemed at the given time.
func (c *ExamCode) Redeemable(now time.Time) bool {
	if c.Used {
		return false
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return false
	}
	return true
}

// GenerateCodeRequest is the payload for minting a single access code.
type GenerateCodeRequest struct {
	UserEmail string     `json:"user_email" binding:"required,email,max=255"`
	ExpiresAt *time.Time `json:"expires_at" binding:"omitempty"`
	SendEmail bool       `json:"send_email"`
}

// GenerateBulkCodesRequest is the payload for minting one code per email.
type GenerateBulkCodesRequest struct {
	Emails    []string   `json:"emails" binding:"required,min=1,max=500,dive,email"`
	ExpiresAt *time.Time `json:"expires_at" binding:"omitempty"`
	SendEmail bool       `json:"send_email"`
}
