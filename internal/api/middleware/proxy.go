package middleware

import "github.com/gin-gonic/gin"

// TrustProxy rewrites scheme and host from the forwarding headers set by
// the ingress in front of the service.
func TrustProxy() gin.HandlerFunc {
	return func(c *gin.Context) {
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			c.Request.URL.Scheme = proto
		}
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}
		c.Next()
	}
}
