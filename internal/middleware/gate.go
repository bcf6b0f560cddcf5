package middleware

import (
	"net/http"

	"github.com/campusport/portalgate/internal/session"
	"github.com/gin-gonic/gin"
)

// Context keys set by SessionGate
const (
	ContextKeyIdentity = "identity"
	ContextKeyRole     = "role"
)

// SessionGate rejects requests while no session is active. Protected
// content is never served during the restore phase or after logout.
func SessionGate(state *session.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := state.Snapshot()

		if snap.Loading {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SESSION_RESTORING",
					"message": "Session restore in progress",
				},
			})
			return
		}

		if !snap.IsAuthenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "No active session",
				},
			})
			return
		}

		c.Set(ContextKeyIdentity, snap.User)
		c.Set(ContextKeyRole, string(snap.User.Role))

		c.Next()
	}
}
