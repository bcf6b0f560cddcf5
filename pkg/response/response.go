package response

import (
	apperrors "github.com/campusport/portalgate/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Success sends a successful JSON response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// SuccessWithNotifications sends a successful JSON response carrying the
// user-facing notifications emitted while handling the request
func SuccessWithNotifications(c *gin.Context, status int, data interface{}, notifications interface{}) {
	c.JSON(status, gin.H{
		"success":       true,
		"data":          data,
		"notifications": notifications,
	})
}

// Error sends an error JSON response
func Error(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.Status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	// Default internal server error
	c.JSON(500, gin.H{
		"success": false,
		"error": gin.H{
			"code":    apperrors.ErrCodeInternalError,
			"message": "Internal server error",
		},
	})
}

// ErrorWithNotifications sends an error JSON response carrying the
// user-facing notifications emitted while handling the request
func ErrorWithNotifications(c *gin.Context, err error, notifications interface{}) {
	status := 500
	code := apperrors.ErrCodeInternalError
	message := "Internal server error"
	if appErr, ok := err.(*apperrors.AppError); ok {
		status = appErr.Status
		code = appErr.Code
		message = appErr.Message
	}
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
		"notifications": notifications,
	})
}

// ValidationError sends a validation error response
func ValidationError(c *gin.Context, message string) {
	c.JSON(400, gin.H{
		"success": false,
		"error": gin.H{
			"code":    apperrors.ErrCodeValidationFailed,
			"message": message,
		},
	})
}
