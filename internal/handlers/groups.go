package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/services"
	"github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// GroupHandler exposes study group CRUD and membership listing.
type GroupHandler struct {
	groups  *services.GroupService
	members *services.MembershipService
}

func NewGroupHandler(groups *services.GroupService, members *services.MembershipService) *GroupHandler {
	return &GroupHandler{groups: groups, members: members}
}

type createGroupRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=128"`
	Description string `json:"description" validate:"omitempty,max=1024"`
}

type updateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=128"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
}

// POST /api/groups
func (h *GroupHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groups.Create(requestContext(c), userID, services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, group)
}

// GET /api/groups
func (h *GroupHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	groups, err := h.groups.ListForUser(requestContext(c), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, groups, 0)
}

// GET /api/groups/:id
func (h *GroupHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	group, err := h.groups.Get(requestContext(c), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// PATCH /api/groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == nil && req.Description == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	group, err := h.groups.Update(requestContext(c), userID, c.Param("id"), services.UpdateGroupInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// DELETE /api/groups/:id
func (h *GroupHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.groups.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/groups/:id/members
func (h *GroupHandler) ListMembers(c *gin.Context) {
	members, err := h.members.ListMembers(requestContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, members, 0)
}

// DELETE /api/groups/:id/members/:userID
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.members.RemoveMember(requestContext(c), actorID, c.Param("id"), c.Param("userID")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
