package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdminKey checks the X-Admin-Key header against the configured
// admin key using a constant-time comparison. If adminKey is empty (unset),
// the middleware fails closed: every request is rejected, including one
// whose header is also empty or absent.
func RequireAdminKey(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Admin-Key")

		if adminKey == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "admin access required",
			}})
			c.Abort()
			return
		}

		c.Next()
	}
}
