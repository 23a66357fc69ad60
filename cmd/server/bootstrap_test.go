package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kidslab/kidsmove/internal/app"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()

	cfg := &app.Config{
		Server: app.ServerConfig{
			Port:      8000,
			RateLimit: app.RateLimitConfig{Enabled: true, Requests: 100, Window: time.Minute},
		},
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "kidsmove.db"),
		},
		Email: app.EmailConfig{Provider: "none"},
		Maintenance: app.MaintenanceConfig{
			Enabled:            true,
			InvitationSchedule: "@hourly",
			TokenPurgeSchedule: "@daily",
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "metrics"},
		},
	}
	_, err := app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	return cfg
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.NotNil(t, stack.Cleaner)
	require.NotNil(t, stack.RateStore)
	require.Nil(t, stack.Redis)

	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBootstrapRuntimeWithoutMaintenance(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.Enabled = false
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.Nil(t, stack.Cleaner)
}

func TestBootstrapRuntimeRejectsBadConfig(t *testing.T) {
	log := zap.NewNop()

	cfg := testConfig(t)
	cfg.Email.Provider = "carrier-pigeon"
	_, err := bootstrapRuntime(context.Background(), cfg, log)
	require.ErrorContains(t, err, "initialise mailer")

	cfg = testConfig(t)
	cfg.Maintenance.InvitationSchedule = "not a schedule"
	_, err = bootstrapRuntime(context.Background(), cfg, log)
	require.ErrorContains(t, err, "start maintenance jobs")

	cfg = testConfig(t)
	cfg.Database.Driver = "oracle"
	_, err = bootstrapRuntime(context.Background(), cfg, log)
	require.ErrorContains(t, err, "open database")
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "does not exist")
}
