// Package mail is the outbound-email collaborator. The core only needs
// Send; delivery details stay behind this interface.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"tourbook/internal/obs"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (m SMTPMailer) Send(_ context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	body := strings.Join([]string{
		"From: " + m.From,
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		msg.Body,
	}, "\r\n")
	if err := smtp.SendMail(addr, auth, m.From, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer is the development sink: it logs instead of delivering.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	obs.LogEvent("", "mail", "send", "to="+msg.To+" subject="+msg.Subject)
	return nil
}
