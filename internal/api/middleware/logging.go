package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taekwondodev/go-account-service/internal/logging"
)

func Logging(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"client_ip", c.ClientIP(),
			"duration", time.Since(start),
		}

		switch {
		case status >= http.StatusInternalServerError:
			if last := c.Errors.Last(); last != nil {
				args = append(args, "error", last.Err)
			}
			log.Error(ctx, "request failed", args...)
		case status >= http.StatusBadRequest:
			log.Warn(ctx, "request rejected", args...)
		default:
			log.Info(ctx, "request completed", args...)
		}
	}
}
