// Package notify sends candidate emails in the background.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/interview-screener/internal/config"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("email sending is not configured")

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends over implicit TLS (SMTPS, port 465 by default).
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// NewSMTPMailer builds a mailer from config. From defaults to the username.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	port := cfg.Port
	if port == 0 {
		port = 465
	}
	return &SMTPMailer{
		Host:     cfg.Host,
		Port:     port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     from,
		Timeout:  30 * time.Second,
	}
}

// Enabled reports whether a host and sender are configured.
func (m *SMTPMailer) Enabled() bool {
	return m != nil && m.Host != "" && m.From != ""
}

// BuildMessage renders headers and body with CRLF line endings.
func BuildMessage(from string, msg Message, now time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + msg.Subject + "\r\n")
	sb.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}

func validAddress(addr string) bool {
	return addr != "" && !strings.ContainsAny(addr, "\r\n") && strings.Contains(addr, "@")
}

// Send delivers msg in a single SMTP session.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if !validAddress(msg.To) {
		return fmt.Errorf("invalid recipient %q", msg.To)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject must be a single line")
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", m.Username, m.Password, m.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(BuildMessage(m.From, msg, time.Now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return client.Quit()
}
