// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Email is one outgoing message with plain-text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email. Handlers depend on this, not on *Mailer.
type Sender interface {
	Send(ctx context.Context, msg Email) error
}

// Config holds SMTP settings. An empty Host puts the Mailer in log-only
// mode: messages are written to the logger instead of being sent.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Mailer sends through an SMTP relay.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// New creates a Mailer.
func New(cfg Config, log *zap.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg, log: log}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.cfg.Host != "" }

// Send delivers msg. It honours ctx cancellation only before the SMTP
// conversation starts; net/smtp has no per-call deadline.
func (m *Mailer) Send(ctx context.Context, msg Email) error {
	if msg.To == "" {
		return errors.New("mailer: empty recipient")
	}
	if !m.Enabled() {
		m.log.Info("mail (log-only)",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.String("text", msg.TextBody))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := m.build(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	start := time.Now()
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	m.log.Debug("mail sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Duration("took", time.Since(start)))
	return nil
}

// build renders a multipart/alternative RFC 5322 message.
func (m *Mailer) build(msg Email) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}
	headers := []struct{ k, v string }{
		{"From", from.String()},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.k, h.v)
	}
	buf.WriteString("\r\n")

	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", msg.TextBody},
		{"text/html; charset=utf-8", msg.HTMLBody},
	} {
		if part.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
