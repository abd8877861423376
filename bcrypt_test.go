package crmauth_test

import (
	"testing"

	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	_, err := crmauth.HashPassword("")
	require.ErrorIs(t, err, crmauth.ErrNoEmptyString)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := crmauth.HashPassword("AAbbbcc12!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, crmauth.ComparePasswordAndHash("AAbbbcc12!", hash))

	err = crmauth.ComparePasswordAndHash("wrong-password", hash)
	require.ErrorIs(t, err, crmauth.ErrInvalidCredentials)
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	first, err := crmauth.HashPassword("AAbbbcc12!")
	require.NoError(t, err)

	second, err := crmauth.HashPassword("AAbbbcc12!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
