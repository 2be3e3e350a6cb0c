// Package mailer hands rendered reminder messages to the outbound
// transactional-mail API. The transport contract is narrow: 2xx means
// accepted, anything else is a failure whose message is captured verbatim for
// the delivery ledger. No retries happen here; the next scheduler invocation
// is the only retry mechanism.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Email is one outbound reminder message.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer is implemented by the email channel transport.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

const defaultBaseURL = "https://api.sendgrid.com"

type SendGridMailer struct {
	APIKey    string
	FromName  string
	FromEmail string

	// BaseURL overrides the API host, used by tests
	BaseURL string

	client *http.Client
}

func NewSendGridMailer(apiKey, fromName, fromEmail string, timeout time.Duration) *SendGridMailer {
	return &SendGridMailer{
		APIKey:    apiKey,
		FromName:  fromName,
		FromEmail: fromEmail,
		BaseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *SendGridMailer) Send(ctx context.Context, e Email) error {
	if s.APIKey == "" {
		return fmt.Errorf("mail API key is not configured")
	}

	from := mail.NewEmail(s.FromName, s.FromEmail)
	to := mail.NewEmail("", e.To)

	message := mail.NewSingleEmail(from, e.Subject, to, e.Text, e.HTML)
	body := mail.GetRequestBody(message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v3/mail/send", bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("error creating mail request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)

	if err != nil {
		return fmt.Errorf("error posting to mail API: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, string(msg))
	}

	return nil
}
