package middleware

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/logger"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// Recovery turns a handler panic into a generic 500. Panics caused by the
// client hanging up are logged without a stack and get no response body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log := logger.WithModule("http").With(
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("user_id", c.GetString(CtxUserIDKey)),
				zap.Any("panic", r),
			)

			if err, ok := r.(error); ok && isBrokenPipe(err) {
				log.Warn("client connection closed during response")
				c.Abort()
				return
			}

			log.Error("handler panic", zap.Stack("stack"))
			response.Abort(c, apperrors.ErrInternalServer)
		}()
		c.Next()
	}
}

func isBrokenPipe(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
	}
	msg := strings.ToLower(opErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}

// NotFoundHandler answers unknown routes with the standard error envelope.
func NotFoundHandler(c *gin.Context) {
	msg := fmt.Sprintf("route %s not found", c.Request.URL.Path)
	response.Error(c, apperrors.New(apperrors.ErrNotFound.Code, msg, apperrors.ErrNotFound.StatusCode))
}
