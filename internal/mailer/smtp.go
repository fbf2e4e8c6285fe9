// Package mailer delivers rendered dispatches over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/andresuchdata/sentinela-corte/internal/config"
)

// ErrNoRecipients is returned when a message has no To address.
var ErrNoRecipients = errors.New("no recipients defined (EMAIL_PARA)")

// Attachment is an in-memory file attached to a message.
type Attachment struct {
	Name string
	Data []byte
}

// Message is one outgoing HTML e-mail.
type Message struct {
	Subject      string
	HTML         string
	To           []string
	Cc           []string
	Bcc          []string
	Attachments  []Attachment
	HighPriority bool
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender authenticates with the configured account and upgrades the
// connection with STARTTLS when the server offers it.
type SMTPSender struct {
	from   string
	dialer dialer
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &SMTPSender{from: cfg.User, dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.build(msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	log.Info().
		Str("to", strings.Join(msg.To, "; ")).
		Str("cc", listOrDash(msg.Cc)).
		Str("bcc", listOrDash(msg.Bcc)).
		Msg("e-mail sent")
	return nil
}

func (s *SMTPSender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	if msg.Subject != "" {
		m.SetHeader("Subject", msg.Subject)
	}
	if msg.HighPriority {
		m.SetHeader("X-Priority", "1")
	}
	m.SetBody("text/html", msg.HTML)

	for _, att := range msg.Attachments {
		data := att.Data
		m.Attach(att.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return m
}

func listOrDash(addrs []string) string {
	if len(addrs) == 0 {
		return "-"
	}
	return strings.Join(addrs, "; ")
}
