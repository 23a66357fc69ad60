package app

import "github.com/kidslab/kidsmove/pkg/mail"

// MailSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) MailSettings() mail.Settings {
	return mail.Settings{
		Provider: c.Provider,
		From:     c.From,
		SMTP: mail.SMTPSettings{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			Username: c.SMTP.Username,
			Password: c.SMTP.Password,
			From:     c.From,
			UseTLS:   c.SMTP.UseTLS,
			Timeout:  c.SMTP.Timeout,
		},
		SendGrid: mail.SendGridSettings{
			APIKey:   c.SendGrid.APIKey,
			From:     c.From,
			FromName: c.SendGrid.FromName,
		},
	}
}
