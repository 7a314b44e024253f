package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	tokenString, err := GenerateToken("u1", secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	userID, err := GetUserIDFromToken(tokenString, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestGetUserIDFromToken_WrongSecret(t *testing.T) {
	tokenString, err := GenerateToken("u1", []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(tokenString, []byte("wrong"))
	assert.Error(t, err)
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	tokenString, err := GenerateToken("u1", []byte("s"), -time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(tokenString, []byte("s"))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGetUserIDFromToken_Garbage(t *testing.T) {
	_, err := GetUserIDFromToken("not-a-token", []byte("s"))
	assert.Error(t, err)
}
