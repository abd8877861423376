package crmauth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UpdateUserMessage edits a user's profile, role, or activity status. A
// role or status change triggers the team cascade after the row is
// persisted; cascade sub-failures are advisory and never fail the update.
type UpdateUserMessage struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone_number"`
	Role   string `json:"role"`
	Status string `json:"status"`

	OnResponse func(*UpdateUserResponse) `json:"-"`
}

func (e UpdateUserMessage) Type() string { return "user.update" }

// Validate will run validation rules
func (e UpdateUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required),
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Role, validation.Required),
		validation.Field(&e.Status, validation.Required, validation.In(UserStatusActive, UserStatusInactive)),
	)
}

// UpdateUserResponse carries the updated user plus the teams the cascade
// located, so callers can render an up-to-date view.
type UpdateUserResponse struct {
	User    *User
	Teams   []*Team
	Cascade *CascadeReport
}

type UpdateUserHandler struct {
	repo    RepositoryManager
	cascade *CascadeEngine
	logger  Logger
}

func NewUpdateUserHandler(repo RepositoryManager, cascade *CascadeEngine) *UpdateUserHandler {
	return &UpdateUserHandler{
		repo:    repo,
		cascade: cascade,
		logger:  defLogger{},
	}
}

func (h *UpdateUserHandler) WithLogger(logger Logger) *UpdateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateUserHandler) Execute(ctx context.Context, event UpdateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateUserHandler) execute(ctx context.Context, event UpdateUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user update payload").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	roleName, ok := ParseRoleName(strings.TrimSpace(event.Role))
	if !ok {
		return goerrors.New("invalid role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": event.Role})
	}

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return err
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, event.UserID, UserWithRole())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	role, err := h.repo.Roles().GetByName(ctx, roleName)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("invalid role", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"role": roleName})
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load role")
	}

	status := UserStatus(strings.TrimSpace(event.Status))

	user.Name = strings.TrimSpace(event.Name)
	user.Email = strings.ToLower(strings.TrimSpace(event.Email))
	user.Phone = phone
	user.RoleID = role.ID
	user.Role = role
	user.Status = status

	user, err = h.repo.Users().Update(ctx, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist user update")
	}
	user.Role = role

	// The primary mutation is done; the cascade runs best-effort and
	// reports rather than aborts.
	teams, report, err := h.cascade.ApplyTransition(ctx, user, roleName, status)
	if err != nil {
		h.logger.Error("cascade could not locate teams", "user_id", user.ID, "error", err)
	}
	for _, outcome := range report.Failed() {
		h.logger.Warn("cascade team update failed", "team_id", outcome.TeamID, "action", outcome.Action, "error", outcome.Err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdateUserResponse{
			User:    user,
			Teams:   teams,
			Cascade: report,
		})
	}

	return nil
}
