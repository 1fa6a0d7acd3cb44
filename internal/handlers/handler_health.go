package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// registerHealthRoutes registers the unauthenticated probes.
func registerHealthRoutes(r *gin.Engine, syncService portssvc.SyncSvc) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/health/ready", readiness(syncService))
}

// readiness godoc
// @Summary Report whether the backing data layer is reachable
// @Description Probes the data layer. Responds 503 while offline; writes still queue in that state.
// @Tags health
// @Produce json
// @Success 200 {object} domain.SyncStatus
// @Failure 503 {object} domain.SyncStatus
// @Router /health/ready [get]
func readiness(syncService portssvc.SyncSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := syncService.RefreshSyncStatus(c.Request.Context())
		code := http.StatusOK
		if !status.IsOnline {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
