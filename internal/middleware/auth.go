package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/studyhub/studyhub-server/internal/auth"
	"github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"

	// accessTokenQueryParam carries the token for WebSocket upgrades, where browsers cannot set headers.
	accessTokenQueryParam = "access_token"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, errors.ErrUnauthorized)
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, errors.ErrUnauthorized)
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		if claims.Email != "" {
			c.Set(CtxUserEmailKey, claims.Email)
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		token := strings.TrimSpace(authz[7:])
		return token, token != ""
	}

	if isWebSocketUpgrade(c) {
		token := strings.TrimSpace(c.Query(accessTokenQueryParam))
		return token, token != ""
	}
	return "", false
}

func isWebSocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}
