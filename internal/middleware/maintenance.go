package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"adminhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaintenanceChecker reads the global maintenance flag.
type MaintenanceChecker interface {
	MaintenanceEnabled(ctx context.Context) (bool, error)
}

// Auth routes stay reachable during maintenance so admins can log in to
// turn the flag back off.
const authRoutePrefix = "/api/auth"

// Maintenance blocks all non-admin traffic while the maintenance flag is
// set. Callers holding the all:manage super-scope are admitted. A failed
// flag lookup fails open: a broken settings store must not lock out the
// whole system.
func Maintenance(checker MaintenanceChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, authRoutePrefix) {
			c.Next()
			return
		}

		enabled, err := checker.MaintenanceEnabled(c.Request.Context())
		if err != nil {
			log.Printf("maintenance: flag lookup failed, failing open: %v", err)
			c.Next()
			return
		}
		if !enabled {
			c.Next()
			return
		}

		if eff, ok := Permissions(c); ok && eff.IsAdmin() {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusServiceUnavailable,
			response.ErrorCode("MAINTENANCE_MODE", "The system is under maintenance. Please try again later."))
	}
}
