package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/services"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// ActivityHandler serves the activity feed of the caller and of groups.
type ActivityHandler struct {
	svc *services.ActivityService
}

func NewActivityHandler(svc *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// GET /api/activity?limit=50
func (h *ActivityHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := listLimit(c)
	entries, err := h.svc.ListForUser(requestContext(c), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, entries, limit)
}

// GET /api/groups/:id/activity?limit=50
// Membership is enforced by the route middleware.
func (h *ActivityHandler) ListForGroup(c *gin.Context) {
	limit := listLimit(c)
	entries, err := h.svc.ListForGroup(requestContext(c), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, entries, limit)
}
