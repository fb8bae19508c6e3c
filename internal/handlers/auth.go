package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/studyhub/studyhub-server/internal/auth"
	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/services"
	"github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// AuthHandler manages registration, login and the current account.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=128"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=128"`
	Password *string `json:"password" validate:"omitempty,min=8,max=128"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PATCH /api/auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == nil && req.Password == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/auth/me
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.users.Delete(requestContext(c), userID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	issued, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, status, authResponse{
		AccessToken: issued.Token,
		ExpiresAt:   issued.ExpiresAt,
		User:        user,
	})
}
