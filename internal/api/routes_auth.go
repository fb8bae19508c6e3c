package api

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/handlers"
)

func registerAuthRoutes(public, protected *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
	}

	me := protected.Group("/auth/me")
	{
		me.GET("", handler.Me)
		me.PATCH("", handler.UpdateMe)
		me.DELETE("", handler.DeleteMe)
	}
}
