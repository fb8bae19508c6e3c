package api

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/handlers"
	"github.com/studyhub/studyhub-server/internal/middleware"
)

type groupRouteDeps struct {
	Members     middleware.GroupAccessChecker
	Groups      *handlers.GroupHandler
	Invitations *handlers.InvitationHandler
	Tasks       *handlers.TaskHandler
	Resources   *handlers.ResourceHandler
	Activity    *handlers.ActivityHandler
	Realtime    *handlers.RealtimeHandler
}

func registerGroupRoutes(protected *gin.RouterGroup, deps groupRouteDeps) {
	groups := protected.Group("/groups")
	{
		groups.POST("", deps.Groups.Create)
		groups.GET("", deps.Groups.List)
	}

	group := groups.Group("/:id")
	group.Use(middleware.RequireGroupMember(deps.Members, "id"))
	{
		group.GET("", deps.Groups.Get)
		group.PATCH("", deps.Groups.Update)
		group.DELETE("", deps.Groups.Delete)

		group.GET("/members", deps.Groups.ListMembers)
		group.DELETE("/members/:userID", deps.Groups.RemoveMember)

		group.GET("/invitations", deps.Invitations.ListForGroup)

		group.GET("/tasks", deps.Tasks.List)
		group.POST("/tasks", deps.Tasks.Create)
		group.PATCH("/tasks/:taskID", deps.Tasks.Update)
		group.DELETE("/tasks/:taskID", deps.Tasks.Delete)

		group.GET("/resources", deps.Resources.List)
		group.POST("/resources", deps.Resources.Create)
		group.DELETE("/resources/:resourceID", deps.Resources.Delete)

		group.GET("/activity", deps.Activity.ListForGroup)
		group.GET("/ws", deps.Realtime.Stream)
	}
}

func registerActivityRoutes(protected *gin.RouterGroup, handler *handlers.ActivityHandler) {
	protected.GET("/activity", handler.ListMine)
}
