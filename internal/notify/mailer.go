package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultQueue is the queue e-mail jobs are published to.
const DefaultQueue = "email_jobs"

// Email is one outbound message job.
type Email struct {
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer hands e-mail jobs to a delivery backend.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// PasswordResetEmail builds the reset message for a single-use token.
func PasswordResetEmail(to, token string) Email {
	return Email{
		Kind:    "password_reset",
		To:      to,
		Subject: "Reset your MediSync password",
		Body:    fmt.Sprintf("Use this code to reset your password: %s\nThe code expires in one hour.", token),
	}
}

// WelcomeEmail builds the message sent when an administrator provisions an account.
func WelcomeEmail(to, name string) Email {
	return Email{
		Kind:    "welcome",
		To:      to,
		Subject: "Welcome to MediSync",
		Body:    fmt.Sprintf("Hello %s, an account has been created for you. Set your password with the reset code we send separately.", name),
	}
}

// LogMailer only logs jobs. Used when no broker is configured.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a mailer that writes jobs to the log.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the job without delivering it.
func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.logger.Info().
		Str("kind", email.Kind).
		Str("to", email.To).
		Str("subject", email.Subject).
		Msg("email queued (log only)")
	return nil
}
