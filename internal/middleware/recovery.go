package middleware

import (
	"net/http"

	apperrors "github.com/campusport/portalgate/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery creates a panic recovery middleware. Nothing in the session
// core is fatal to the process; a panicking handler answers 500 and the
// gateway keeps serving.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    apperrors.ErrCodeInternalError,
						"message": "Internal server error",
					},
				})
			}
		}()

		c.Next()
	}
}
