package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/metrics"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// CtxGroupIDKey holds the group id of a request that passed RequireGroupMember.
const CtxGroupIDKey = "groupID"

// GroupAccessChecker decides whether a user may act inside a group.
type GroupAccessChecker interface {
	RequireMember(ctx context.Context, userID, groupID string) error
}

// RequireGroupMember rejects requests from users that do not belong to the group named by the path parameter.
func RequireGroupMember(checker GroupAccessChecker, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Abort(c, errors.ErrUnauthorized)
			return
		}

		groupID := strings.TrimSpace(c.Param(param))
		if groupID == "" {
			response.Abort(c, errors.NewBadRequest("group id is required"))
			return
		}

		if err := checker.RequireMember(c.Request.Context(), userID, groupID); err != nil {
			metrics.GroupAccessChecks.WithLabelValues(resultLabel(err)).Inc()
			response.Abort(c, err)
			return
		}

		metrics.GroupAccessChecks.WithLabelValues("allowed").Inc()
		c.Set(CtxGroupIDKey, groupID)
		c.Next()
	}
}

func resultLabel(err error) string {
	if appErr := errors.FromError(err); appErr != nil && appErr.StatusCode < 500 {
		return "denied"
	}
	return "error"
}
