package notify

import (
	"context"
	"fmt"
	"landing-bot/internal/config"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer отправляет письма менеджерам через SMTP.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

// NewSMTPMailer возвращает nil, если SMTP не настроен.
func NewSMTPMailer(cfg config.Email, fromName string) *SMTPMailer {
	if cfg.Host == "" || cfg.From == "" {
		return nil
	}
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		fromName: fromName,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
