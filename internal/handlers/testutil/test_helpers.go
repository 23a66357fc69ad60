package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/api"
	"github.com/kidslab/kidsmove/internal/app"
	iauth "github.com/kidslab/kidsmove/internal/auth"
	sharedtestutil "github.com/kidslab/kidsmove/internal/database/testutil"
	"github.com/kidslab/kidsmove/internal/middleware"
	"github.com/kidslab/kidsmove/internal/models"
	"github.com/kidslab/kidsmove/internal/report"
	"github.com/kidslab/kidsmove/internal/services"
	"github.com/kidslab/kidsmove/pkg/mail"
	"github.com/kidslab/kidsmove/pkg/response"
)

// BaseURL is the public URL configured for handler tests.
const BaseURL = "https://kids.example.com"

// BootstrapAdmin is the email promoted to admin on first sign-in.
const BootstrapAdmin = "owner@example.com"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Config   *app.Config
	Services *api.Services
	Mailer   *CaptureMailer
}

// EnvOption customises the environment built by NewEnv.
type EnvOption func(*envConfig)

type envConfig struct {
	withoutRenderer bool
}

// WithoutRenderer wires the router with PDF export disabled.
func WithoutRenderer() EnvOption {
	return func(cfg *envConfig) {
		cfg.withoutRenderer = true
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	envCfg := envConfig{}
	for _, opt := range opts {
		opt(&envCfg)
	}

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		App: app.SiteConfig{BaseURL: BaseURL},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			BootstrapAdmins: []string{BootstrapAdmin},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	mailer := &CaptureMailer{}
	svc, err := api.NewServices(db, jwtSvc, cfg, mailer, nil)
	require.NoError(t, err)

	deps := api.Dependencies{
		DB:        db,
		JWT:       jwtSvc,
		Config:    cfg,
		Services:  svc,
		RateStore: middleware.NewMemoryRateStore(),
	}
	if !envCfg.withoutRenderer {
		renderer, err := report.NewRenderer()
		require.NoError(t, err)
		deps.Renderer = renderer
	}

	router, err := api.NewRouter(deps)
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Config:   cfg,
		Services: svc,
		Mailer:   mailer,
	}
}

// CaptureMailer records outgoing messages instead of delivering them.
type CaptureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *CaptureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (m *CaptureMailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

var signInLink = regexp.MustCompile(`/auth/verify\?token=([0-9a-f]{32})`)

// SignIn runs the magic-link flow for email over HTTP and returns the issued access token.
func (e *Env) SignIn(email string) string {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/magic-link", map[string]string{"email": email}, "")
	require.Equal(e.T, http.StatusAccepted, w.Code, w.Body.String())

	messages := e.Mailer.Messages()
	require.NotEmpty(e.T, messages)
	match := signInLink.FindStringSubmatch(messages[len(messages)-1].Body)
	require.Len(e.T, match, 2)

	w = e.Request(http.MethodPost, "/api/auth/magic-link/verify", map[string]string{"token": match[1]}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	var result iauth.SignInResult
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &result)
	require.NotEmpty(e.T, result.AccessToken)
	return result.AccessToken
}

// SeedProfile inserts a profile with role and returns its identity.
func (e *Env) SeedProfile(role models.Role, email string) *services.Identity {
	e.T.Helper()

	profile := models.Profile{
		BaseModel: models.BaseModel{ID: uuid.NewString()},
		Role:      role,
		FullName:  string(role) + " " + email,
		Email:     email,
	}
	require.NoError(e.T, e.DB.Create(&profile).Error)
	return &services.Identity{ID: profile.ID, Email: profile.Email}
}

// TokenFor issues an access token for identity without going through sign-in.
func (e *Env) TokenFor(identity *services.Identity) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{UserID: identity.ID, Email: identity.Email})
	require.NoError(e.T, err)
	return token
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
