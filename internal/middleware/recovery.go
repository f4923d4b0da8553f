package middleware

import (
	"errors"
	"log"
	"net/http"
	"runtime/debug"

	"taskflow/backend/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// RecoveryWithLog turns a panicking handler into a 500 envelope and logs the
// stack.
func RecoveryWithLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered on %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.NewResponse(errors.New("panic")))
			}
		}()
		c.Next()
	}
}
