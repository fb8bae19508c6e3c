package api

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/handlers"
)

func registerInvitationRoutes(api *gin.RouterGroup, requireAuth, limiter gin.HandlerFunc, handler *handlers.InvitationHandler) {
	invitations := api.Group("/invitations")

	// Token probing endpoints carry their own, tighter budget.
	invitations.GET("/validate/:token", limiter, handler.Validate)
	invitations.POST("/accept/:token", limiter, requireAuth, handler.Accept)

	invitations.POST("/:groupId", requireAuth, handler.Create)
	invitations.DELETE("/:token", requireAuth, handler.Revoke)
}
