package mailer

import (
	"context"
	"fmt"
	"net/smtp"
)

// Sender delivers a one-time code (or any short notice) to an address.
// It fails when the address is unreachable; callers decide whether that
// fails the request.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends plain-text mail over an authenticated SMTP relay.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)

	msg := fmt.Sprintf(
		"From: %q <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.FromName, s.Username, to, subject, body,
	)

	if err := smtp.SendMail(addr, auth, s.Username, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
