package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/middleware"
	"github.com/studyhub/studyhub-server/internal/realtime"
	"github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// RealtimeHandler upgrades authenticated group members into the group event stream.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /api/groups/:id/ws
// Authentication and membership are enforced by the route middleware.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID := c.GetString(middleware.CtxGroupIDKey)
	if groupID == "" {
		groupID = c.Param("id")
	}

	h.hub.Serve(userID, groupID, c.Writer, c.Request)
}
