// Package mailer implements the delivery channel over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"dev-digest/internal/pkg/config"
)

// SMTPConfig holds the SMTP endpoint and credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// LoadSMTPConfig reads SMTP settings from the environment, applying safe
// defaults and fail-open fallback for malformed values.
func LoadSMTPConfig() SMTPConfig {
	portResult := config.LoadEnvInt("SMTP_PORT", 587, config.ValidatePositiveInt)
	logConfigWarnings("SMTP_PORT", portResult)

	timeoutResult := config.LoadEnvDuration("SMTP_TIMEOUT", 30*time.Second, config.ValidatePositiveDuration)
	logConfigWarnings("SMTP_TIMEOUT", timeoutResult)

	username := config.LoadEnvString("SMTP_USER", "")
	from := config.LoadEnvString("EMAIL_FROM", username)

	return SMTPConfig{
		Host:     config.LoadEnvString("SMTP_HOST", "localhost"),
		Port:     portResult.Value.(int),
		Username: username,
		Password: config.LoadEnvString("SMTP_PASSWORD", ""),
		From:     from,
		Timeout:  timeoutResult.Value.(time.Duration),
	}
}

func logConfigWarnings(key string, result config.ConfigLoadResult) {
	for _, warning := range result.Warnings {
		slog.Warn("config fallback applied",
			slog.String("key", key),
			slog.String("warning", warning))
	}
}

// SMTPMailer sends composed digests over SMTP with STARTTLS when the server
// offers it. It implements digest.DeliveryChannel.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer for the given endpoint.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: slog.Default().With(slog.String("component", "mailer")),
	}
}

// Send delivers one message. The context bounds connection setup; the
// configured timeout bounds the whole exchange via the connection deadline.
func (m *SMTPMailer) Send(ctx context.Context, address, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Now().Add(m.cfg.Timeout)); err != nil {
		_ = conn.Close()
		return fmt.Errorf("set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(address); err != nil {
		return fmt.Errorf("rcpt to %s: %w", address, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMessage(m.cfg.From, address, subject, body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	if err := client.Quit(); err != nil {
		// Message already accepted; a failed QUIT is only worth a log line.
		m.logger.Warn("smtp quit failed",
			slog.Any("error", err))
	}
	return nil
}

// buildMessage assembles an RFC 5322 plain text message with CRLF line
// endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
