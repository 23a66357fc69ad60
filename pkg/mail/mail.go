package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrDisabled signals that outbound mail is switched off by configuration.
var ErrDisabled = errors.New("mail: delivery disabled")

// Message represents an outbound plain-text email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer delivers messages through a concrete provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Provider names accepted by New.
const (
	ProviderNone     = "none"
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
)

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	From     string
	SMTP     SMTPSettings
	SendGrid SendGridSettings
}

// New builds the Mailer named by settings.Provider. An empty provider disables delivery.
func New(settings Settings) (Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Provider)) {
	case "", ProviderNone:
		return disabledMailer{}, nil
	case ProviderSMTP:
		cfg := settings.SMTP
		cfg.Enabled = true
		if cfg.From == "" {
			cfg.From = settings.From
		}
		return NewSMTPMailer(cfg)
	case ProviderSendGrid:
		cfg := settings.SendGrid
		if cfg.From == "" {
			cfg.From = settings.From
		}
		return NewSendGridMailer(cfg)
	default:
		return nil, fmt.Errorf("mail: unsupported provider %q", settings.Provider)
	}
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, Message) error {
	return ErrDisabled
}

// envelope resolves the sender and validated recipient list for a message.
func envelope(msg Message, defaultFrom string) (string, []string, error) {
	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return "", nil, errors.New("mail: at least one recipient is required")
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = strings.TrimSpace(defaultFrom)
	}
	if from == "" {
		return "", nil, errors.New("mail: sender address is required")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return "", nil, fmt.Errorf("mail: invalid from address: %w", err)
	}

	for _, rcpt := range recipients {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return "", nil, fmt.Errorf("mail: invalid recipient address %q: %w", rcpt, err)
		}
	}
	return from, recipients, nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, addr)
	}
	return result
}
