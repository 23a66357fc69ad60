package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/app"
	iauth "github.com/kidslab/kidsmove/internal/auth"
	"github.com/kidslab/kidsmove/internal/handlers"
	"github.com/kidslab/kidsmove/internal/middleware"
)

// Dependencies carries everything NewRouter wires into the engine.
type Dependencies struct {
	DB       *gorm.DB
	JWT      *iauth.JWTService
	Config   *app.Config
	Services *Services
	// RateStore backs request throttling; nil disables it.
	RateStore middleware.RateStore
	// Renderer produces PDF reports; nil disables the PDF endpoints.
	Renderer handlers.ReportRenderer
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Services == nil {
		return nil, fmt.Errorf("services must be provided")
	}
	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))
	if cfg.Server.RateLimit.Enabled && deps.RateStore != nil {
		r.Use(middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}

	registerHealthRoutes(r, deps.DB, cfg)

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.Auth(deps.JWT))

	svc := deps.Services
	registerAuthRoutes(api, protected, handlers.NewAuthHandler(svc.MagicLinks), handlers.NewProfileHandler(svc.Profiles))
	registerChildRoutes(protected, handlers.NewChildHandler(svc.Children))
	registerAssessmentRoutes(protected, handlers.NewAssessmentHandler(svc.Assessments, deps.Renderer))
	registerInvitationRoutes(api, protected, handlers.NewInvitationHandler(svc.Invitations))
	registerShareRoutes(api, protected, handlers.NewShareHandler(svc.Shares, deps.Renderer))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func metricsEndpoint(cfg *app.Config) string {
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint
}
