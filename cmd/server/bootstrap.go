package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kidslab/kidsmove/internal/api"
	"github.com/kidslab/kidsmove/internal/app"
	"github.com/kidslab/kidsmove/internal/app/maintenance"
	iauth "github.com/kidslab/kidsmove/internal/auth"
	"github.com/kidslab/kidsmove/internal/cache"
	"github.com/kidslab/kidsmove/internal/database"
	"github.com/kidslab/kidsmove/internal/middleware"
	"github.com/kidslab/kidsmove/internal/report"
	"github.com/kidslab/kidsmove/pkg/logger"
	"github.com/kidslab/kidsmove/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisStore
	Services  *api.Services
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	mailer, err := mail.New(cfg.Email.MailSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}
	log.Info("mail delivery configured", zap.String("provider", strings.ToLower(strings.TrimSpace(cfg.Email.Provider))))

	stack.Services, err = api.NewServices(stack.DB, jwtSvc, cfg, mailer, nil)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	renderer, err := report.NewRenderer(report.WithFontFile(cfg.Report.FontPath))
	if err != nil {
		return nil, fmt.Errorf("initialise report renderer: %w", err)
	}
	if !renderer.Unicode() {
		log.Warn("no unicode font configured; PDF reports fall back to English labels")
	}

	if cfg.Maintenance.Enabled {
		opts := []maintenance.Option{
			maintenance.WithInvitationSchedule(cfg.Maintenance.InvitationSchedule),
			maintenance.WithTokenSchedule(cfg.Maintenance.TokenPurgeSchedule),
			maintenance.WithPurger("magic_link_tokens", stack.Services.MagicLinks),
		}
		if stack.Redis == nil {
			opts = append(opts, maintenance.WithPurger("cache_entries", dbStore))
		}
		stack.Cleaner = maintenance.NewCleaner(stack.Services.Invitations, opts...)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	if stack.Redis != nil {
		stack.RateStore = middleware.NewStoreRateStore(stack.Redis)
	} else {
		stack.RateStore = middleware.NewStoreRateStore(dbStore)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:        stack.DB,
		JWT:       jwtSvc,
		Config:    cfg,
		Services:  stack.Services,
		RateStore: stack.RateStore,
		Renderer:  renderer,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}
