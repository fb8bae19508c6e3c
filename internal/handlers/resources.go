package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/services"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// ResourceHandler manages links shared inside a group.
type ResourceHandler struct {
	svc *services.ResourceService
}

func NewResourceHandler(svc *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{svc: svc}
}

type createResourceRequest struct {
	Title string `json:"title" validate:"required,notblank,max=255"`
	URL   string `json:"url" validate:"required,url,max=2048"`
}

// POST /api/groups/:id/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createResourceRequest
	if !bindJSON(c, &req) {
		return
	}

	resource, err := h.svc.Create(requestContext(c), userID, c.Param("id"), services.CreateResourceInput{
		Title: req.Title,
		URL:   req.URL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resource)
}

// GET /api/groups/:id/resources
func (h *ResourceHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resources, err := h.svc.List(requestContext(c), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.List(c, resources, 0)
}

// DELETE /api/groups/:id/resources/:resourceID
func (h *ResourceHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(requestContext(c), userID, c.Param("id"), c.Param("resourceID")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
