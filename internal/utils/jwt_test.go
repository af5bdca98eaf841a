package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken(42, "alice", "member", 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "member", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	SetJWTSecret("test-secret")

	_, err := ParseToken("not-a-token")
	require.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("secret-one")
	token, err := GenerateToken(1, "bob", "member", 1)
	require.NoError(t, err)

	SetJWTSecret("secret-two")
	_, err = ParseToken(token)
	require.Error(t, err)
}

func TestGenerateTokenExpired(t *testing.T) {
	SetJWTSecret("test-secret")

	// Negative expiry puts the token in the past.
	token, err := GenerateToken(1, "carol", "member", -1)
	require.NoError(t, err)

	_, err = ParseToken(token)
	require.Error(t, err)
}
