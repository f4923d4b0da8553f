package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"

	"taskflow/backend/internal/config"

	"github.com/go-mail/mail/v2"
)

const sendAttempts = 3

// Mailer delivers account notifications to users.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, username, temporaryPassword string) error
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`
{{define "subject"}}Your TaskFlow password has been reset{{end}}

{{define "plainBody"}}Hi {{.Username}},

Your password was reset. Sign in with the temporary password below and change it straight away.

Temporary password: {{.Password}}
{{end}}

{{define "htmlBody"}}<!doctype html>
<html>
<body>
<p>Hi {{.Username}},</p>
<p>Your password was reset. Sign in with the temporary password below and change it straight away.</p>
<p>Temporary password: <code>{{.Password}}</code></p>
</body>
</html>
{{end}}
`))

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type SMTPMailer struct {
	dialer dialer
	sender string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender: cfg.Sender,
	}
}

// NewMailer returns an SMTP mailer when a host is configured and a logging
// mailer otherwise.
func NewMailer(cfg config.MailConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

func (m *SMTPMailer) buildMessage(to, username, temporaryPassword string) (*mail.Message, error) {
	data := struct {
		Username string
		Password string
	}{username, temporaryPassword}

	var subject, plainBody, htmlBody bytes.Buffer
	if err := passwordResetTemplate.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, err
	}
	if err := passwordResetTemplate.ExecuteTemplate(&plainBody, "plainBody", data); err != nil {
		return nil, err
	}
	if err := passwordResetTemplate.ExecuteTemplate(&htmlBody, "htmlBody", data); err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())
	return msg, nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, temporaryPassword string) error {
	msg, err := m.buildMessage(to, username, temporaryPassword)
	if err != nil {
		return fmt.Errorf("render password reset mail: %w", err)
	}

	for i := 0; i < sendAttempts; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = m.dialer.DialAndSend(msg); err == nil {
			return nil
		}
		log.Printf("Password reset mail to %s failed (attempt %d/%d): %v", to, i+1, sendAttempts, err)
	}
	return fmt.Errorf("send password reset mail: %w", err)
}

// LogMailer stands in for SMTP in development.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to, username, temporaryPassword string) error {
	log.Printf("SMTP not configured, password reset mail for %s <%s> not sent", username, to)
	return nil
}
