package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/studyhub/studyhub-server/pkg/logger"
)

// Route parameters whose values are credentials and must not reach the logs.
var secretParams = map[string]struct{}{"token": {}}

// Logger writes one access log entry per request. 5xx responses log at
// error, 4xx at warn, health probes at debug and everything else at info.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", redactedPath(c)),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := c.GetString(CtxUserIDKey); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := logger.WithModule("http").Check(accessLevel(c, status), "request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func accessLevel(c *gin.Context, status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	case strings.HasPrefix(c.FullPath(), "/health"):
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func redactedPath(c *gin.Context) string {
	path := c.Request.URL.Path
	for _, p := range c.Params {
		if _, secret := secretParams[p.Key]; secret && p.Value != "" {
			path = strings.Replace(path, p.Value, "[redacted]", 1)
		}
	}
	return path
}
