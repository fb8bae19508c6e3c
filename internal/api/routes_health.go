package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studyhub/studyhub-server/internal/app"
	"github.com/studyhub/studyhub-server/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, handler *handlers.HealthHandler) {
	if !cfg.Monitoring.Health.Enabled {
		r.GET("/health", disabledHealthHandler)
		r.GET("/health/live", disabledHealthHandler)
		return
	}

	r.GET("/health", handler.Check)
	r.GET("/health/live", handler.Live)
}

func registerMetricsRoutes(r *gin.Engine, cfg *app.Config) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}

	r.GET(metricsEndpoint(cfg), gin.WrapH(promhttp.Handler()))
}

func metricsEndpoint(cfg *app.Config) string {
	if endpoint := cfg.Monitoring.Prometheus.Endpoint; endpoint != "" {
		return endpoint
	}
	return "/metrics"
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}
