// internal/interfaces/http/middleware/setup.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
)

// SetupGuard answers 503 with the setup notice while the backend is unconfigured
func SetupGuard(status config.BackendStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status.Configured {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":   "setup_required",
			"message": status.SetupNotice(),
			"missing": status.Missing,
		})
	}
}
