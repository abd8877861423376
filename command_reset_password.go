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

// ResetPasswordMessage is the unauthenticated reset path: the caller must
// present the email together with its role name, and both must match the
// stored user.
type ResetPasswordMessage struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	NewPassword string `json:"new_password"`
}

func (e ResetPasswordMessage) Type() string { return "user.reset_password" }

// Validate will run validation rules
func (e ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Role, validation.Required),
		validation.Field(&e.NewPassword, validation.Required),
	)
}

type ResetPasswordHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewResetPasswordHandler(repo RepositoryManager) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	return h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		email := strings.ToLower(strings.TrimSpace(event.Email))

		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, email, UserWithRole())
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
		}

		// Role acts as a shared secret on this path; a mismatch looks the
		// same as a missing user.
		if user.RoleName() != RoleName(strings.TrimSpace(event.Role)) {
			return ErrIdentityNotFound
		}

		if err := ValidatePasswordPolicy(event.NewPassword); err != nil {
			return err
		}

		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Users().ChangePasswordTx(ctx, tx, user.ID, hash); err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			h.logger.Error("password reset persistence failed", "user_id", user.ID, "error", err)
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password reset")
		}

		return nil
	})
}
