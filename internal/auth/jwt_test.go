package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	s := NewJWTService("test-secret", time.Hour, "cuss-test")

	tok, err := s.Generate("admin-1", "owner")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)

	claims, err := s.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, "owner", claims.Username)
	assert.Equal(t, "admin-1", claims.Subject)
}

func TestJWTService_Rejects(t *testing.T) {
	s := NewJWTService("test-secret", time.Hour, "cuss-test")
	tok, err := s.Generate("admin-1", "owner")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService("other", time.Hour, "cuss-test")
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService("test-secret", time.Hour, "someone-else")
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTService("test-secret", time.Hour, "cuss-test")
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{AdminID: "admin-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = s.Validate(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia123", hash)
	assert.True(t, CheckPassword(hash, "rahasia123"))
	assert.False(t, CheckPassword(hash, "salah"))
}
