package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/cache"
	"github.com/studyhub/studyhub-server/internal/database"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports whether the database and the optional cache respond.
type HealthHandler struct {
	db    *gorm.DB
	cache cache.Store
}

// NewHealthHandler constructs a health handler. cacheStore may be nil when Redis is disabled.
func NewHealthHandler(db *gorm.DB, cacheStore cache.Store) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheStore}
}

// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(requestContext(c), healthCheckTimeout)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true

	if err := database.Ping(ctx, h.db); err != nil {
		checks["database"] = "unavailable"
		healthy = false
	}

	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = "unavailable"
			healthy = false
		}
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"success":    healthy,
		"status":     state,
		"checks":     checks,
		"checked_at": time.Now().UTC(),
	})
}

// Live reports process liveness without touching dependencies.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
