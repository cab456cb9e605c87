package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendRelationshipEnded(ctx context.Context, to string, partnerName string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendRelationshipEnded(ctx context.Context, to string, partnerName string) error {
	subject := "Connection removed"
	content := fmt.Sprintf("Your connection with %s has been removed. Their clinical records are no longer shared with you.", partnerName)
	return s.SendCustom(ctx, to, subject, content)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService discards every message. Used when SMTP is not
// configured.
type NoopService struct{}

func (NoopService) SendRelationshipEnded(ctx context.Context, to string, partnerName string) error {
	return nil
}

func (NoopService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	return nil
}
