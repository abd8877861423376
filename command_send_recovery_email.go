package crmauth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// SendRecoveryEmailMessage resets the account to a generated temporary
// password and mails it to the user. The default_password_changed flag is
// cleared so the next login forces a proper password change.
type SendRecoveryEmailMessage struct {
	Email string `json:"email"`

	OnResponse func(*SendRecoveryEmailResponse) `json:"-"`
}

func (e SendRecoveryEmailMessage) Type() string { return "user.send_recovery_email" }

// Validate will run validation rules
func (e SendRecoveryEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// SendRecoveryEmailResponse reports the delivery outcome.
type SendRecoveryEmailResponse struct {
	User      *User
	MailError error
}

type SendRecoveryEmailHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewSendRecoveryEmailHandler(repo RepositoryManager, mailer Mailer) *SendRecoveryEmailHandler {
	return &SendRecoveryEmailHandler{
		repo:   repo,
		mailer: normalizeMailer(mailer),
		logger: defLogger{},
	}
}

func (h *SendRecoveryEmailHandler) WithLogger(logger Logger) *SendRecoveryEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SendRecoveryEmailHandler) Execute(ctx context.Context, event SendRecoveryEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account recovery",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SendRecoveryEmailHandler) execute(ctx context.Context, event SendRecoveryEmailMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid recovery payload").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	tempPassword, err := GenerateTempPassword()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate temporary password")
	}

	user := &User{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		email := strings.ToLower(strings.TrimSpace(event.Email))

		found, err := h.repo.Users().GetByIdentifierTx(ctx, tx, email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
		}
		user = found

		hash, err := HashPassword(tempPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist recovery password")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account recovery transaction failed")
	}

	mailErr := SendWithRetry(ctx, h.mailer, NewRecoveryMail(user.Email, user.Name, tempPassword))
	if mailErr != nil {
		h.logger.Error("recovery mail delivery failed", "email", user.Email, "error", mailErr)
	}

	if event.OnResponse != nil {
		event.OnResponse(&SendRecoveryEmailResponse{
			User:      user,
			MailError: mailErr,
		})
	}

	return mailErr
}
