package crmauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// DeleteUserMessage removes a user. Deletion first runs the cascade as if
// the user transitioned to inactive under their current role, so teams
// never retain references to a deleted user.
type DeleteUserMessage struct {
	UserID string `json:"user_id"`

	OnResponse func(*DeleteUserResponse) `json:"-"`
}

func (e DeleteUserMessage) Type() string { return "user.delete" }

// Validate will run validation rules
func (e DeleteUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required),
	)
}

// DeleteUserResponse carries the cascade outcome for logging.
type DeleteUserResponse struct {
	Teams   []*Team
	Cascade *CascadeReport
}

type DeleteUserHandler struct {
	repo    RepositoryManager
	cascade *CascadeEngine
	logger  Logger
}

func NewDeleteUserHandler(repo RepositoryManager, cascade *CascadeEngine) *DeleteUserHandler {
	return &DeleteUserHandler{
		repo:    repo,
		cascade: cascade,
		logger:  defLogger{},
	}
}

func (h *DeleteUserHandler) WithLogger(logger Logger) *DeleteUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *DeleteUserHandler) Execute(ctx context.Context, event DeleteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteUserHandler) execute(ctx context.Context, event DeleteUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user delete payload").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.UserID, UserWithRole())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	// Implicit transition: current role, inactive status.
	teams, report, err := h.cascade.ApplyTransition(ctx, user, user.RoleName(), UserStatusInactive)
	if err != nil {
		h.logger.Error("cascade could not locate teams", "user_id", user.ID, "error", err)
	}
	for _, outcome := range report.Failed() {
		h.logger.Warn("cascade team update failed", "team_id", outcome.TeamID, "action", outcome.Action, "error", outcome.Err)
	}

	if err := h.repo.Users().SoftDelete(ctx, user.ID); err != nil {
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
	}

	if event.OnResponse != nil {
		event.OnResponse(&DeleteUserResponse{
			Teams:   teams,
			Cascade: report,
		})
	}

	return nil
}
