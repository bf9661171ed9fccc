package services

import (
	"context"
	"log/slog"
)

// Mailer delivers account emails.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, purpose OTPPurpose) error
	SendWelcome(ctx context.Context, email, name string) error
}

// LogMailer writes messages to the log instead of sending them. It is the
// development delivery channel.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string, purpose OTPPurpose) error {
	m.logger.InfoContext(ctx, "otp email", "to", email, "purpose", purpose, "code", code)
	return nil
}

func (m *LogMailer) SendWelcome(ctx context.Context, email, name string) error {
	m.logger.InfoContext(ctx, "welcome email", "to", email, "name", name)
	return nil
}
