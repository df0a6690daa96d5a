package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/pkg/ctxutil"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

// quietRoutes are polled or long-lived and only logged at debug when they succeed.
var quietRoutes = map[string]bool{
	"/healthcheck":    true,
	"/api/sse/stream": true,
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := requestFields(c, route, status, time.Since(start))

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case quietRoutes[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func requestFields(c *gin.Context, route string, status int, elapsed time.Duration) []interface{} {
	ctx := c.Request.Context()
	fields := []interface{}{
		"method", strings.ToUpper(c.Request.Method),
		"path", route,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
		"bytes", c.Writer.Size(),
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		fields = appendNonEmpty(fields, "trace_id", td.TraceID)
		fields = appendNonEmpty(fields, "request_id", td.RequestID)
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
		fields = append(fields, "user_id", rd.UserID.String())
	}
	if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
		fields = append(fields, "error", errs.String())
	}
	return fields
}

func appendNonEmpty(fields []interface{}, key, val string) []interface{} {
	if val == "" {
		return fields
	}
	return append(fields, key, val)
}
