package security_test

import (
	"testing"
	"time"

	"showroom/internal/security"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHS256_RoundTrip(t *testing.T) {
	h := security.NewHS256("supersecret", "showroom")

	tok, err := h.Issue("u-1", "USER", time.Hour)
	require.NoError(t, err)

	c, err := h.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, "USER", c.Role)
	assert.Equal(t, "showroom", c.Issuer)
	assert.True(t, c.Exp.After(time.Now()))
}

func TestHS256_Rejects(t *testing.T) {
	h := security.NewHS256("supersecret", "showroom")

	t.Run("expired", func(t *testing.T) {
		tok, err := h.Issue("u-1", "USER", -time.Minute)
		require.NoError(t, err)
		_, err = h.Verify(tok)
		assert.ErrorIs(t, err, security.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := security.NewHS256("other", "showroom").Issue("u-1", "USER", time.Hour)
		require.NoError(t, err)
		_, err = h.Verify(tok)
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok, err := security.NewHS256("supersecret", "elsewhere").Issue("u-1", "USER", time.Hour)
		require.NoError(t, err)
		_, err = h.Verify(tok)
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})

	t.Run("alg none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": "u-1", "iss": "showroom"})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = h.Verify(s)
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})

	t.Run("missing uid", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss": "showroom", "exp": time.Now().Add(time.Hour).Unix(),
		})
		s, err := tok.SignedString([]byte("supersecret"))
		require.NoError(t, err)
		_, err = h.Verify(s)
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})
}
