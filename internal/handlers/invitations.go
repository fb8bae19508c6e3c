package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/services"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// InvitationHandler exposes the invitation token lifecycle.
type InvitationHandler struct {
	svc *services.InvitationService
}

func NewInvitationHandler(svc *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

type invitationResponse struct {
	ID        string                  `json:"id"`
	Token     string                  `json:"token"`
	GroupID   string                  `json:"group_id"`
	Status    models.InvitationStatus `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
}

type acceptInvitationResponse struct {
	GroupID string                  `json:"group_id"`
	Status  models.InvitationStatus `json:"status"`
}

func toInvitationResponse(inv *models.Invitation) invitationResponse {
	return invitationResponse{
		ID:        inv.ID,
		Token:     inv.Token,
		GroupID:   inv.GroupID,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt,
	}
}

// POST /api/invitations/:groupId
func (h *InvitationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	inv, err := h.svc.Create(requestContext(c), userID, c.Param("groupId"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toInvitationResponse(inv))
}

// GET /api/invitations/validate/:token
func (h *InvitationHandler) Validate(c *gin.Context) {
	preview, err := h.svc.Preview(requestContext(c), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, preview)
}

// POST /api/invitations/accept/:token
func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	inv, err := h.svc.Accept(requestContext(c), userID, c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, acceptInvitationResponse{
		GroupID: inv.GroupID,
		Status:  inv.Status,
	})
}

// DELETE /api/invitations/:token
func (h *InvitationHandler) Revoke(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Revoke(requestContext(c), userID, c.Param("token")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/groups/:id/invitations
func (h *InvitationHandler) ListForGroup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invitations, err := h.svc.ListForGroup(requestContext(c), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]invitationResponse, 0, len(invitations))
	for i := range invitations {
		out = append(out, toInvitationResponse(&invitations[i]))
	}
	response.List(c, out, 0)
}
