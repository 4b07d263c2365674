// Package mailer delivers transactional email through an external HTTP
// collaborator. Delivery is best-effort: code issuance never fails because
// an email could not be sent.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// HTTPMailer posts messages to a mail relay endpoint as JSON.
type HTTPMailer struct {
	endpoint string
	from     string
	client   *http.Client
	log      zerolog.Logger
}

// NewHTTPMailer creates a mailer targeting the given relay endpoint.
func NewHTTPMailer(endpoint, from string, log zerolog.Logger) *HTTPMailer {
	return &HTTPMailer{
		endpoint: endpoint,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "mailer").Logger(),
	}
}

type mailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send posts the message to the relay. A non-2xx status is an error.
func (m *HTTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(mailPayload{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail relay returned status %d", resp.StatusCode)
	}

	m.log.Debug().Str("to", to).Str("subject", subject).Msg("Mail delivered to relay")
	return nil
}

// NopMailer discards every message. Used when no relay is configured.
type NopMailer struct{}

// Send does nothing.
func (NopMailer) Send(_ context.Context, _, _, _ string) error { return nil }
