package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/taekwondodev/go-account-service/internal/auth/service"
)

// RequireAuth admits requests carrying a valid access token and stores the
// resulting identity on the request context.
func RequireAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := service.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, err)
			return
		}

		identity, err := authService.Authorize(c.Request.Context(), tok)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(service.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}
