package crmauth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPasswordFixture(t *testing.T, role crmauth.RoleName) (*fakeRepoManager, *fakeUsers, *crmauth.User) {
	t.Helper()

	hash, err := crmauth.HashPassword("AAbbbcc12!")
	require.NoError(t, err)

	user := &crmauth.User{
		ID:           uuid.New(),
		Name:         "Ada Vega",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Role:         &crmauth.Role{ID: uuid.New(), Name: role},
	}

	users := &fakeUsers{
		byIdentifier: map[string]*crmauth.User{
			user.ID.String(): user,
			user.Email:       user,
		},
	}

	return &fakeRepoManager{users: users}, users, user
}

func TestChangePasswordHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("changes the password", func(t *testing.T) {
		repo, users, user := newPasswordFixture(t, crmauth.RoleSalesRepresentative)

		logger := &captureLogger{}
		handler := crmauth.NewChangePasswordHandler(repo).WithLogger(logger)

		err := handler.Execute(ctx, crmauth.ChangePasswordMessage{
			UserID:          user.ID.String(),
			CurrentPassword: "AAbbbcc12!",
			NewPassword:     "BBcccdd34@",
		})
		require.NoError(t, err)

		stored, ok := users.passwords[user.ID]
		require.True(t, ok)
		require.NoError(t, crmauth.ComparePasswordAndHash("BBcccdd34@", stored))
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		repo, users, user := newPasswordFixture(t, crmauth.RoleSalesRepresentative)

		handler := crmauth.NewChangePasswordHandler(repo)

		err := handler.Execute(ctx, crmauth.ChangePasswordMessage{
			UserID:          user.ID.String(),
			CurrentPassword: "wrong-password",
			NewPassword:     "BBcccdd34@",
		})
		require.ErrorIs(t, err, crmauth.ErrInvalidCredentials)
		assert.Empty(t, users.passwords)
	})

	t.Run("rejects reusing the current password", func(t *testing.T) {
		repo, _, user := newPasswordFixture(t, crmauth.RoleSalesRepresentative)

		handler := crmauth.NewChangePasswordHandler(repo)

		err := handler.Execute(ctx, crmauth.ChangePasswordMessage{
			UserID:          user.ID.String(),
			CurrentPassword: "AAbbbcc12!",
			NewPassword:     "AAbbbcc12!",
		})
		require.ErrorIs(t, err, crmauth.ErrSamePassword)
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		handler := crmauth.NewChangePasswordHandler(&fakeRepoManager{})

		err := handler.Execute(ctx, crmauth.ChangePasswordMessage{})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	})

	t.Run("logs persistence failures", func(t *testing.T) {
		repo, users, user := newPasswordFixture(t, crmauth.RoleSalesRepresentative)
		users.changeErr = goerrors.New("disk full", goerrors.CategoryInternal)

		logger := &captureLogger{}
		handler := crmauth.NewChangePasswordHandler(repo).WithLogger(logger)

		err := handler.Execute(ctx, crmauth.ChangePasswordMessage{
			UserID:          user.ID.String(),
			CurrentPassword: "AAbbbcc12!",
			NewPassword:     "BBcccdd34@",
		})
		require.Error(t, err)
		assert.Contains(t, logger.entries, "password change persistence failed")
	})
}

func TestResetPasswordHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("resets when email and role match", func(t *testing.T) {
		repo, users, user := newPasswordFixture(t, crmauth.RoleSalesManager)

		logger := &captureLogger{}
		handler := crmauth.NewResetPasswordHandler(repo).WithLogger(logger)

		err := handler.Execute(ctx, crmauth.ResetPasswordMessage{
			Email:       "Ada@Example.com",
			Role:        crmauth.RoleSalesManager,
			NewPassword: "BBcccdd34@",
		})
		require.NoError(t, err)

		stored, ok := users.passwords[user.ID]
		require.True(t, ok)
		require.NoError(t, crmauth.ComparePasswordAndHash("BBcccdd34@", stored))
	})

	t.Run("role mismatch looks like a missing user", func(t *testing.T) {
		repo, users, _ := newPasswordFixture(t, crmauth.RoleSalesManager)

		handler := crmauth.NewResetPasswordHandler(repo)

		err := handler.Execute(ctx, crmauth.ResetPasswordMessage{
			Email:       "ada@example.com",
			Role:        crmauth.RoleAdmin,
			NewPassword: "BBcccdd34@",
		})
		require.ErrorIs(t, err, crmauth.ErrIdentityNotFound)
		assert.Empty(t, users.passwords)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo, _, _ := newPasswordFixture(t, crmauth.RoleSalesManager)

		handler := crmauth.NewResetPasswordHandler(repo)

		err := handler.Execute(ctx, crmauth.ResetPasswordMessage{
			Email:       "ghost@example.com",
			Role:        crmauth.RoleSalesManager,
			NewPassword: "BBcccdd34@",
		})
		require.ErrorIs(t, err, crmauth.ErrIdentityNotFound)
	})

	t.Run("enforces the password policy", func(t *testing.T) {
		repo, _, _ := newPasswordFixture(t, crmauth.RoleSalesManager)

		handler := crmauth.NewResetPasswordHandler(repo)

		err := handler.Execute(ctx, crmauth.ResetPasswordMessage{
			Email:       "ada@example.com",
			Role:        crmauth.RoleSalesManager,
			NewPassword: "short",
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, crmauth.TextCodePasswordPolicy, richErr.TextCode)
	})
}
