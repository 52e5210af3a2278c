// Package mailer is the outbound email capability consumed by the login flow.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // relay host:port
	From string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	if !strings.Contains(addr, ":") {
		addr += ":25"
	}
	return &SMTPMailer{Addr: addr, From: from}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.From, to, subject, body)
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// CodeEmail renders the login-code message.
func CodeEmail(code string) (subject, body string) {
	subject = fmt.Sprintf("Your code is %s", code)
	body = fmt.Sprintf("Hi,\n\nYour auth code to login is %s.\n\nIf you did not request this login please ignore.\n", code)
	return subject, body
}
