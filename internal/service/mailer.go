package service

import (
	"fmt"
	"log"

	"github.com/bigdady147/Eddy-Hub/internal/config"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail. Disabled when SMTP is unconfigured so
// local runs work without a mail server.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		log.Println("Warning: SMTP host is empty, outgoing mail is disabled")
		return &Mailer{enabled: false}
	}
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:    cfg.MailFrom,
		enabled: true,
	}
}

func (m *Mailer) SendPasswordReset(to, resetURL string) error {
	if !m.enabled {
		log.Printf("Mail disabled, skipping password reset mail to %s", to)
		return nil
	}

	body := fmt.Sprintf(`
		<h1>You have requested a password reset</h1>
		<p>Please go to this link to reset your password:</p>
		<a href="%s">%s</a>
		<p>This link expires in 10 minutes.</p>
	`, resetURL, resetURL)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset Request")
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send password reset mail: %w", err)
	}
	return nil
}
