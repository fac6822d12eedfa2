package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bcryptTestCost keeps the test fast; production cost comes from config.
const bcryptTestCost = 4

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("orion-belt", bcryptTestCost)
	require.NoError(t, err)
	assert.NotEqual(t, "orion-belt", hash)
	assert.True(t, VerifyPassword(hash, "orion-belt"))
	assert.False(t, VerifyPassword(hash, "orion-belts"))
	assert.False(t, VerifyPassword("not-a-hash", "orion-belt"))
}

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", 42, "ADMIN", 15)
	require.NoError(t, err)
	assert.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "ADMIN", claims["role"])
}

func TestNewRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96) // 48 random bytes hex-encoded
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), rt.Exp, 5*time.Second)

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestHashRefreshRawIsStable(t *testing.T) {
	h1 := HashRefreshRaw("abc")
	h2 := HashRefreshRaw("abc")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // sha-256 hex
	assert.NotEqual(t, h1, HashRefreshRaw("abd"))
}
