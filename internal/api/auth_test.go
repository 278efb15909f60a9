package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

func TestIssueAndParseToken(t *testing.T) {
	tok, err := IssueToken("s3cret", "mentor", "U1", RoleAdmin, time.Hour, time.Now())
	require.NoError(t, err)

	id, err := ParseToken("s3cret", "mentor", tok)
	require.NoError(t, err)
	assert.Equal(t, "U1", id.Subject)
	assert.True(t, id.IsAdmin())
}

func TestIssueTokenValidation(t *testing.T) {
	_, err := IssueToken("", "mentor", "U1", RoleUser, time.Hour, time.Now())
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	_, err = IssueToken("s", "mentor", "", RoleUser, time.Hour, time.Now())
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	_, err = IssueToken("s", "mentor", "U1", "owner", time.Hour, time.Now())
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestParseTokenRejects(t *testing.T) {
	good, err := IssueToken("s3cret", "mentor", "U1", RoleUser, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseToken("other", "mentor", good)
	assert.ErrorIs(t, err, perrors.ErrAuthFailure, "wrong secret")

	_, err = ParseToken("s3cret", "elsewhere", good)
	assert.ErrorIs(t, err, perrors.ErrAuthFailure, "wrong issuer")

	// Tokens without an expiry are refused.
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "U1", Issuer: "mentor"},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseToken("s3cret", "mentor", noExp)
	assert.ErrorIs(t, err, perrors.ErrAuthFailure)

	// Only HS256 is accepted.
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "U1",
			Issuer:    "mentor",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseToken("s3cret", "mentor", hs512)
	assert.ErrorIs(t, err, perrors.ErrAuthFailure)
}

func TestParseTokenDefaultsRole(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "U1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	id, err := ParseToken("s3cret", "", tok)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, id.Role)
}
