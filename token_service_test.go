package crmauth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	identity := newTestIdentity()
	ts := crmauth.NewTokenService([]byte("test-signing-key"), 12, "test-issuer", nil)

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.ID(), claims.UserID())
	assert.Equal(t, identity.ID(), claims.Subject())
	assert.Equal(t, identity.Email(), claims.Email())
	assert.Equal(t, identity.Name(), claims.Name())
	assert.Equal(t, identity.RoleID(), claims.RoleID())
	assert.Equal(t, identity.Role(), claims.Role())
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceDefaultsExpirationToTwelveHours(t *testing.T) {
	ts := crmauth.NewTokenService([]byte("test-signing-key"), 0, "test-issuer", nil)

	token, err := ts.Generate(newTestIdentity())
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	expected := time.Now().Add(time.Duration(crmauth.DefaultTokenExpirationHours) * time.Hour)
	assert.WithinDuration(t, expected, claims.Expires(), time.Minute)
}

func TestTokenServiceValidateExpiredToken(t *testing.T) {
	ts := crmauth.NewTokenService([]byte("test-signing-key"), 12, "test-issuer", nil)

	now := time.Now()
	claims := &crmauth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UID: "user-1",
	}

	token, err := ts.SignClaims(claims)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.ErrorIs(t, err, crmauth.ErrTokenExpired)
}

func TestTokenServiceValidateGarbageToken(t *testing.T) {
	ts := crmauth.NewTokenService([]byte("test-signing-key"), 12, "test-issuer", nil)

	_, err := ts.Validate("not-a-token")
	require.Error(t, err)
	assert.True(t, crmauth.IsMalformedError(err))
}

func TestTokenServiceValidateWrongKey(t *testing.T) {
	issuer := crmauth.NewTokenService([]byte("key-one"), 12, "test-issuer", nil)
	verifier := crmauth.NewTokenService([]byte("key-two"), 12, "test-issuer", nil)

	token, err := issuer.Generate(newTestIdentity())
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceValidateWrongIssuer(t *testing.T) {
	issuer := crmauth.NewTokenService([]byte("test-signing-key"), 12, "issuer-a", nil)
	verifier := crmauth.NewTokenService([]byte("test-signing-key"), 12, "issuer-b", nil)

	token, err := issuer.Generate(newTestIdentity())
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceAssignsTokenID(t *testing.T) {
	ts := crmauth.NewTokenService([]byte("test-signing-key"), 12, "test-issuer", nil)

	token, err := ts.Generate(newTestIdentity())
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	jwtClaims, ok := claims.(*crmauth.JWTClaims)
	require.True(t, ok)
	assert.NotEmpty(t, jwtClaims.RegisteredClaims.ID)
}
