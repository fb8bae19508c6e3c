package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/api"
	"github.com/studyhub/studyhub-server/internal/app"
	"github.com/studyhub/studyhub-server/internal/app/maintenance"
	iauth "github.com/studyhub/studyhub-server/internal/auth"
	"github.com/studyhub/studyhub-server/internal/cache"
	"github.com/studyhub/studyhub-server/internal/database"
	"github.com/studyhub/studyhub-server/internal/realtime"
	"github.com/studyhub/studyhub-server/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Redis    *cache.RedisClient
	Hub      *realtime.Hub
	Services *api.Services
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, background jobs and the HTTP router.
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

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to in-memory rate limiting", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Hub = realtime.NewHub(cfg.Server.CORS.AllowedOrigins...)

	stack.Services, err = api.NewServices(stack.DB, stack.Hub, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Services.Invitations, stack.Services.Activity,
			maintenance.WithInvitationRetentionDays(cfg.Invitations.RetentionDays),
			maintenance.WithActivityRetentionDays(cfg.Activity.RetentionDays),
			maintenance.WithInvitationSchedule(cfg.Maintenance.InvitationSchedule),
			maintenance.WithActivitySchedule(cfg.Maintenance.ActivitySchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	deps := api.Dependencies{
		DB:       stack.DB,
		JWT:      jwtSvc,
		Config:   cfg,
		Services: stack.Services,
		Hub:      stack.Hub,
	}
	if stack.Redis != nil {
		deps.Cache = stack.Redis
	}

	stack.Router, err = api.NewRouter(deps)
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
		stopCtx := s.Cleaner.Stop()
		<-stopCtx.Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Hub != nil {
		s.Hub.Close()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}

	closeDatabase(s.DB, log)
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:            strings.TrimSpace(cfg.Database.Path),
		DSN:             strings.TrimSpace(cfg.Database.DSN),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		applyDBAuth(&dbCfg, cfg.Database.Postgres)
	case "mysql":
		applyDBAuth(&dbCfg, cfg.Database.MySQL)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func applyDBAuth(dbCfg *database.Config, auth app.DBAuthConfig) {
	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
