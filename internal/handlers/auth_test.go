package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidslab/kidsmove/internal/handlers/testutil"
	"github.com/kidslab/kidsmove/internal/models"
)

func TestMagicLinkSignInBootstrapsAdmin(t *testing.T) {
	env := testutil.NewEnv(t)

	token := env.SignIn("Owner@Example.com")

	w := env.Request(http.MethodGet, "/api/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var profile models.Profile
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &profile)
	require.Equal(t, models.RoleAdmin, profile.Role)
	require.Equal(t, testutil.BootstrapAdmin, profile.Email)
}

func TestMagicLinkSignInWithoutProfile(t *testing.T) {
	env := testutil.NewEnv(t)

	token := env.SignIn("visitor@example.com")
	w := env.Request(http.MethodGet, "/api/me", nil, token)
	requireAPIError(t, w, http.StatusNotFound, "NOT_FOUND")
}

func TestMagicLinkRequestValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/magic-link", map[string]string{"email": "nope"}, "")
	requireAPIError(t, w, http.StatusBadRequest, "BAD_REQUEST")
	require.Contains(t, w.Body.String(), "email must be a valid email address")
	require.Empty(t, env.Mailer.Messages())
}

func TestMagicLinkVerifyRejectsUnknownToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/magic-link/verify", map[string]string{"token": "0123456789abcdef0123456789abcdef"}, "")
	requireAPIError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")

	w = env.Request(http.MethodPost, "/api/auth/magic-link/verify", map[string]string{}, "")
	requireAPIError(t, w, http.StatusBadRequest, "BAD_REQUEST")
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	env := testutil.NewEnv(t)

	for _, path := range []string{"/api/me", "/api/children", "/api/assessments", "/api/invitations", "/api/shares"} {
		w := env.Request(http.MethodGet, path, nil, "")
		requireAPIError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
	}

	w := env.Request(http.MethodGet, "/api/me", nil, "not-a-jwt")
	requireAPIError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestCreateProfileRequiresAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.SeedProfile(models.RoleAdmin, "admin@example.com")
	coach := env.SeedProfile(models.RoleCoach, "coach@example.com")

	body := map[string]string{"email": "new.coach@example.com", "full_name": "田中 一郎", "role": "coach"}

	w := env.Request(http.MethodPost, "/api/profiles", body, env.TokenFor(coach))
	requireAPIError(t, w, http.StatusForbidden, "FORBIDDEN")

	w = env.Request(http.MethodPost, "/api/profiles", body, env.TokenFor(admin))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/profiles", body, env.TokenFor(admin))
	requireAPIError(t, w, http.StatusConflict, "CONFLICT")

	body["role"] = "owner"
	w = env.Request(http.MethodPost, "/api/profiles", body, env.TokenFor(admin))
	requireAPIError(t, w, http.StatusBadRequest, "BAD_REQUEST")
	require.Contains(t, w.Body.String(), "role must be one of: admin coach parent")

	// A newly provisioned coach signs in and lands on its profile.
	token := env.SignIn("new.coach@example.com")
	w = env.Request(http.MethodGet, "/api/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile models.Profile
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &profile)
	require.Equal(t, models.RoleCoach, profile.Role)
}
