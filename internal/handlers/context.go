package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/studyhub/studyhub-server/internal/middleware"
	"github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/logger"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id or writes a 401 response.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// writeError renders err and logs anything that maps to a server error.
func writeError(c *gin.Context, err error) {
	appErr := errors.FromError(err)
	if appErr.Server() {
		logger.WithModule("handlers").Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, appErr)
}
