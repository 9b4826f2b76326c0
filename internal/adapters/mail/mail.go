// Package mail delivers notifications over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/offsuit/analyzer/internal/config"
)

// ErrSend is the sentinel kind for delivery failures.
var ErrSend = errors.New("mail send failed")

// attachmentName labels the plain-text report attached to clash mails.
const attachmentName = "name-clash-report.txt"

// SMTPNotifier sends plain-text mail with an optional text attachment.
// It satisfies the identity package's Notifier interface.
type SMTPNotifier struct {
	host       string
	port       int
	from       string
	password   string
	recipients []string
}

// NewSMTP builds a notifier from SMTP settings. Returns an error when the
// settings cannot possibly deliver mail so the caller can fall back to the
// no-op notifier explicitly.
func NewSMTP(cfg config.SMTPConfig, recipients []string) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("%w: smtp host and from address required", ErrSend)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients configured", ErrSend)
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPNotifier{
		host:       cfg.Host,
		port:       port,
		from:       cfg.From,
		password:   cfg.Password,
		recipients: recipients,
	}, nil
}

// Notify sends one message to every configured recipient. The attachment,
// when present, rides along as a plain-text MIME part.
func (n *SMTPNotifier) Notify(ctx context.Context, subject, body string, attachment []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := n.buildMessage(subject, body, attachment)
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.from, n.password, n.host)

	// smtp.SendMail negotiates STARTTLS when the server offers it.
	if err := smtp.SendMail(addr, auth, n.from, n.recipients, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(subject, body string, attachment []byte) []byte {
	const boundary = "offsuit-mail-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	if len(attachment) > 0 {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", attachmentName)
		b.Write(attachment)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// Noop swallows notifications. Used when mail is not configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, subject, body string, attachment []byte) error {
	return nil
}
