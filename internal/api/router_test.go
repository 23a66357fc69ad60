package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/kidslab/kidsmove/internal/api"
	"github.com/kidslab/kidsmove/internal/handlers/testutil"
)

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"database":"ok"`)

	w = env.Request(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{"/api/me", "/api/children", "/api/assessments", "/api/invitations", "/api/shares"} {
		w = env.Request(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w = env.Request(http.MethodGet, "/api/nope", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	env.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "kidsmove_api_latency_seconds")
}

func TestRouter_SecurityHeaders(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/health", nil, "")
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := testutil.NewEnv(t)

	complete := api.Dependencies{
		DB:       env.DB,
		JWT:      env.JWT,
		Config:   env.Config,
		Services: env.Services,
	}
	_, err := api.NewRouter(complete)
	require.NoError(t, err)

	cases := map[string]func(d *api.Dependencies){
		"database": func(d *api.Dependencies) { d.DB = nil },
		"jwt":      func(d *api.Dependencies) { d.JWT = nil },
		"config":   func(d *api.Dependencies) { d.Config = nil },
		"services": func(d *api.Dependencies) { d.Services = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			deps := complete
			mutate(&deps)
			_, err := api.NewRouter(deps)
			require.Error(t, err)
			require.Contains(t, err.Error(), name)
		})
	}
}
