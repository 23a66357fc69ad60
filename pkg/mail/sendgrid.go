package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSettings configure delivery through the SendGrid v3 API.
type SendGridSettings struct {
	APIKey   string
	From     string
	FromName string
}

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

type sendGridMailer struct {
	cfg    SendGridSettings
	client sendGridClient
}

// NewSendGridMailer returns a Mailer backed by the SendGrid API.
func NewSendGridMailer(cfg SendGridSettings) (Mailer, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid: api key is required")
	}
	return &sendGridMailer{cfg: cfg, client: sendgrid.NewSendClient(cfg.APIKey)}, nil
}

func (m *sendGridMailer) Send(ctx context.Context, msg Message) error {
	from, recipients, err := envelope(msg, m.cfg.From)
	if err != nil {
		return err
	}

	email := sgmail.NewV3Mail()
	email.SetFrom(sgmail.NewEmail(m.cfg.FromName, from))
	email.Subject = msg.Subject

	personalization := sgmail.NewPersonalization()
	for _, rcpt := range recipients {
		personalization.AddTos(sgmail.NewEmail("", rcpt))
	}
	email.AddPersonalizations(personalization)
	email.AddContent(sgmail.NewContent("text/plain", msg.Body))

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}
