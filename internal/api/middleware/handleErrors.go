package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taekwondodev/go-account-service/internal/api/dto"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
)

// HandlerFunc is a gin handler that reports failure by returning an error.
type HandlerFunc func(c *gin.Context) error

func ErrorHandler(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {
			abortWithError(c, err)
		}
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := customerrors.GetStatus(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
	}

	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Code:   status,
		Detail: customerrors.GetMessage(err),
		Fields: customerrors.GetFields(err),
	})
}
