package crmauth_test

import (
	"strings"
	"testing"

	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "AAbbbcc12!",
			wantErr:  false,
		},
		{
			name:     "valid with multiple symbols",
			password: "SEcret@123$abc",
			wantErr:  false,
		},
		{
			name:     "too short",
			password: "Ab1!",
			wantErr:  true,
		},
		{
			name:     "contains whitespace",
			password: "AAbbb cc12!",
			wantErr:  true,
		},
		{
			name:     "missing symbol",
			password: "AAbbbcc123",
			wantErr:  true,
		},
		{
			name:     "symbol not in allowed set",
			password: "AAbbbcc12?",
			wantErr:  true,
		},
		{
			name:     "only one uppercase",
			password: "Abbbbcc12!",
			wantErr:  true,
		},
		{
			name:     "only two lowercase",
			password: "AAVVbb123!",
			wantErr:  true,
		},
		{
			name:     "only one digit",
			password: "AAbbbccc1!",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := crmauth.ValidatePasswordPolicy(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateTempPassword(t *testing.T) {
	password, err := crmauth.GenerateTempPassword()
	require.NoError(t, err)
	assert.Len(t, password, crmauth.TempPasswordLength)

	long, err := crmauth.GenerateTempPassword(32)
	require.NoError(t, err)
	assert.Len(t, long, 32)
}

func TestGenerateTempPasswordIsNotDeterministic(t *testing.T) {
	a, err := crmauth.GenerateTempPassword(32)
	require.NoError(t, err)

	b, err := crmauth.GenerateTempPassword(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestGenerateTempPasswordCharset(t *testing.T) {
	charset := "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"abcdefghijklmnopqrstuvwxyz" +
		"0123456789" +
		crmauth.PasswordSymbols

	password, err := crmauth.GenerateTempPassword(64)
	require.NoError(t, err)

	for _, r := range password {
		assert.True(t, strings.ContainsRune(charset, r), "unexpected character %q", r)
	}
}
