package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type jwtFixture struct {
	svc     *JWTService
	current time.Time
}

func newJWTFixture(t *testing.T, cfg JWTConfig) *jwtFixture {
	t.Helper()

	f := &jwtFixture{current: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
	cfg.Clock = func() time.Time { return f.current }
	svc, err := NewJWTService(cfg)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Issuer: "kidsmove"})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestJWTServiceDefaultsTTL(t *testing.T) {
	f := newJWTFixture(t, JWTConfig{Secret: "secret"})
	require.Equal(t, DefaultAccessTokenTTL, f.svc.TTL())
}

func TestAccessTokenCarriesIdentity(t *testing.T) {
	f := newJWTFixture(t, JWTConfig{Secret: "coach-secret", Issuer: "kidsmove", AccessTokenTTL: 2 * time.Hour})

	signed, err := f.svc.GenerateAccessToken(AccessTokenInput{
		UserID:   "8b6f0c1e-2f4a-4f7e-9a51-3c7c2d1b0a99",
		Email:    "coach@example.com",
		Audience: []string{"kidsmove-api"},
	})
	require.NoError(t, err)

	claims, err := f.svc.ValidateAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, "8b6f0c1e-2f4a-4f7e-9a51-3c7c2d1b0a99", claims.UserID)
	require.Equal(t, claims.UserID, claims.Subject)
	require.Equal(t, "coach@example.com", claims.Email)
	require.Equal(t, "kidsmove", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"kidsmove-api"}, claims.Audience)
	require.True(t, claims.ExpiresAt.Time.Equal(f.current.Add(2*time.Hour)))

	_, err = f.svc.GenerateAccessToken(AccessTokenInput{Email: "coach@example.com"})
	require.EqualError(t, err, "jwt: user id is required")
}

func TestValidateAccessTokenRejections(t *testing.T) {
	f := newJWTFixture(t, JWTConfig{Secret: "parent-secret", Issuer: "kidsmove", AccessTokenTTL: time.Minute})
	signed, err := f.svc.GenerateAccessToken(AccessTokenInput{UserID: "parent-1", Email: "parent@example.com"})
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := f.svc.ValidateAccessToken("")
		require.EqualError(t, err, "jwt: token string is empty")
	})

	t.Run("foreign secret", func(t *testing.T) {
		other := newJWTFixture(t, JWTConfig{Secret: "other-secret", Issuer: "kidsmove"})
		_, err := other.svc.ValidateAccessToken(signed)
		require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		other := newJWTFixture(t, JWTConfig{Secret: "parent-secret", Issuer: "someone-else"})
		_, err := other.svc.ValidateAccessToken(signed)
		require.EqualError(t, err, "jwt: invalid issuer")
	})

	t.Run("expired", func(t *testing.T) {
		f.current = f.current.Add(2 * time.Minute)
		_, err := f.svc.ValidateAccessToken(signed)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
}
