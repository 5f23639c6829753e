package mailer

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// NoopMailer logs deliveries instead of sending them. Used for local
// development and as the channel when SMTP is not configured.
type NoopMailer struct {
	sent atomic.Int64
}

// NewNoopMailer creates a mailer that drops all messages.
func NewNoopMailer() *NoopMailer {
	return &NoopMailer{}
}

// Send implements digest.DeliveryChannel.
func (m *NoopMailer) Send(_ context.Context, address, subject, _ string) error {
	m.sent.Add(1)
	slog.Info("noop mailer dropped message",
		slog.String("to", address),
		slog.String("subject", subject))
	return nil
}

// Sent returns how many messages were dropped.
func (m *NoopMailer) Sent() int64 {
	return m.sent.Load()
}
