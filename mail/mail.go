// Package mail delivers short plain-text messages over authenticated SMTP
// submission. Delivery is synchronous and best-effort; failures are
// reported as errors, never panics.
package mail

import (
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/textproto"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrAuthenticationFailed indicates the submission server rejected the
// configured credentials.
var ErrAuthenticationFailed = errors.New("mail: authentication failed")

// SMTPMailer sends mail through a single submission endpoint using
// credentials from the process environment.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	logger   *slog.Logger
}

// NewFromEnv builds a mailer from the environment, loading a .env file if
// one is present. RESET_EMAIL is both the authentication username and the
// sender address; EMAIL_PASSWORD is the submission password. SMTP_HOST and
// SMTP_PORT default to Gmail submission.
func NewFromEnv(logger *slog.Logger) (*SMTPMailer, error) {
	_ = godotenv.Load()

	username := os.Getenv("RESET_EMAIL")
	password := os.Getenv("EMAIL_PASSWORD")
	if username == "" || password == "" {
		return nil, errors.New("mail: RESET_EMAIL and EMAIL_PASSWORD must be set")
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{host: host, port: port, username: username, password: password, logger: logger}, nil
}

// Send delivers body to the recipient address. smtp.SendMail negotiates
// STARTTLS when the server advertises it.
func (m *SMTPMailer) Send(to, body string) error {
	msg := Message(m.username, to, body)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := m.host + ":" + m.port

	if err := smtp.SendMail(addr, auth, m.username, []string{to}, msg); err != nil {
		if isAuthError(err) {
			m.logger.Error("smtp authentication rejected", "host", m.host, "user", m.username)
			return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
		}
		m.logger.Error("smtp delivery failed", "host", m.host, "to", to, "err", err)
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	m.logger.Info("mail delivered", "to", to, "bytes", len(msg))
	return nil
}

// Message renders a minimal subject-less RFC 5322 message.
func Message(from, to, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

func isAuthError(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		// 530/534/535 are the auth-rejection replies.
		return protoErr.Code == 530 || protoErr.Code == 534 || protoErr.Code == 535
	}
	return false
}
