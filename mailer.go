package crmauth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
)

// MailMaxAttempts is how many times a send is tried before giving up.
// Attempts are back to back, no backoff.
var MailMaxAttempts = 3

// SendWithRetry delivers msg through the mailer, retrying immediately on
// failure up to MailMaxAttempts.
func SendWithRetry(ctx context.Context, mailer Mailer, msg MailMessage) error {
	mailer = normalizeMailer(mailer)

	var lastErr error
	for attempt := 1; attempt <= MailMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during mail delivery")
		default:
		}

		if err := mailer.Send(ctx, msg); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return errors.Wrap(lastErr, errors.CategoryInternal, "mail delivery failed").
		WithMetadata(map[string]any{
			"to":       msg.To,
			"attempts": MailMaxAttempts,
		})
}

// NewRegistrationMail builds the welcome message carrying the temporary
// password issued at registration.
func NewRegistrationMail(to, name, tempPassword string) MailMessage {
	return MailMessage{
		To:      to,
		Subject: "Welcome to SkyCRM",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour account has been created. Sign in with the temporary password below and change it right away.\n\nTemporary password: %s\n",
			name, tempPassword,
		),
	}
}

// NewRecoveryMail builds the account recovery message carrying a one-time code.
func NewRecoveryMail(to, name, code string) MailMessage {
	return MailMessage{
		To:      to,
		Subject: "SkyCRM account recovery",
		Body: fmt.Sprintf(
			"Hi %s,\n\nUse the one-time code below to recover your account.\n\nRecovery code: %s\n",
			name, code,
		),
	}
}
