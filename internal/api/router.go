package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/app"
	iauth "github.com/studyhub/studyhub-server/internal/auth"
	"github.com/studyhub/studyhub-server/internal/cache"
	"github.com/studyhub/studyhub-server/internal/handlers"
	"github.com/studyhub/studyhub-server/internal/middleware"
	"github.com/studyhub/studyhub-server/internal/realtime"
)

// Dependencies carries everything the router needs. Cache, Hub and RateStore are optional.
type Dependencies struct {
	DB        *gorm.DB
	JWT       *iauth.JWTService
	Config    *app.Config
	Services  *Services
	Hub       *realtime.Hub
	Cache     cache.Store
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Services == nil {
		return nil, errors.New("services must be provided")
	}

	cfg := deps.Config
	rateStore := deps.RateStore
	if rateStore == nil {
		if deps.Cache != nil {
			rateStore = middleware.NewCacheRateStore(deps.Cache)
		} else {
			rateStore = middleware.NewMemoryRateStore()
		}
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics(metricsEndpoint(cfg)))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins))
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Name:        "global",
		Store:       rateStore,
		MaxRequests: cfg.Server.RateLimit.Requests,
		Window:      cfg.Server.RateLimit.Window,
	}))

	registerHealthRoutes(r, cfg, handlers.NewHealthHandler(deps.DB, deps.Cache))
	registerMetricsRoutes(r, cfg)

	svc := deps.Services
	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(requireAuth)

	registerAuthRoutes(api, protected, handlers.NewAuthHandler(svc.Users, deps.JWT))

	invitationLimiter := middleware.RateLimit(middleware.RateLimitConfig{
		Name:        "invitations",
		Store:       rateStore,
		MaxRequests: cfg.Invitations.RateLimit.Requests,
		Window:      cfg.Invitations.RateLimit.Window,
	})
	invitationHandler := handlers.NewInvitationHandler(svc.Invitations)
	registerInvitationRoutes(api, requireAuth, invitationLimiter, invitationHandler)

	registerGroupRoutes(protected, groupRouteDeps{
		Members:     svc.Members,
		Groups:      handlers.NewGroupHandler(svc.Groups, svc.Members),
		Invitations: invitationHandler,
		Tasks:       handlers.NewTaskHandler(svc.Tasks),
		Resources:   handlers.NewResourceHandler(svc.Resources),
		Activity:    handlers.NewActivityHandler(svc.Activity),
		Realtime:    handlers.NewRealtimeHandler(deps.Hub),
	})

	registerActivityRoutes(protected, handlers.NewActivityHandler(svc.Activity))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
