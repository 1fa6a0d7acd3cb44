package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/dto"
	"github.com/SscSPs/finance_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

// syncHandler handles synchronisation and connectivity routes.
type syncHandler struct {
	syncService portssvc.SyncSvc
}

func newSyncHandler(ss portssvc.SyncSvc) *syncHandler {
	return &syncHandler{syncService: ss}
}

// registerSyncRoutes registers routes related to syncing.
func registerSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvc) {
	h := newSyncHandler(syncService)

	sync := rg.Group("/sync")
	{
		sync.GET("", h.getSyncStatus)
		sync.POST("", h.sync)
		sync.POST("/force", h.forceSyncAll)
		sync.PUT("/connectivity", h.setConnectivity)
	}
}

// getSyncStatus godoc
// @Summary Get the sync status
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncStatusResponse
// @Security BearerAuth
// @Router /sync [get]
func (h *syncHandler) getSyncStatus(c *gin.Context) {
	status := h.syncService.RefreshSyncStatus(c.Request.Context())
	c.JSON(http.StatusOK, dto.SyncStatusResponse{SyncStatus: status})
}

// sync godoc
// @Summary Flush operations queued while offline
// @Description Local state is kept when the flush fails; the queue stays for the next attempt.
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncStatusResponse
// @Failure 503 {object} map[string]string "Data layer unreachable"
// @Security BearerAuth
// @Router /sync [post]
func (h *syncHandler) sync(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.syncService.Sync(ctx); err != nil {
		respondError(c, err, "sync", "Sync failed")
		return
	}
	status := h.syncService.RefreshSyncStatus(ctx)
	c.JSON(http.StatusOK, dto.SyncStatusResponse{SyncStatus: status, Message: "Sync completed"})
}

// forceSyncAll godoc
// @Summary Force a full resync
// @Description Requests a full resync from the data layer, then reloads every collection.
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncStatusResponse
// @Failure 503 {object} map[string]string "Data layer unreachable"
// @Security BearerAuth
// @Router /sync/force [post]
func (h *syncHandler) forceSyncAll(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.syncService.ForceSyncAll(ctx); err != nil {
		respondError(c, err, "sync", "Force sync failed")
		return
	}
	status := h.syncService.RefreshSyncStatus(ctx)
	c.JSON(http.StatusOK, dto.SyncStatusResponse{SyncStatus: status, Message: "Full resync completed"})
}

// setConnectivity godoc
// @Summary Report a connectivity change
// @Description Coming back online with queued operations triggers a sync.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body dto.ConnectivityRequest true "Connectivity"
// @Success 200 {object} dto.SyncStatusResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /sync/connectivity [put]
func (h *syncHandler) setConnectivity(c *gin.Context) {
	var req dto.ConnectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON for SetConnectivity", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	status := h.syncService.SetConnectivity(c.Request.Context(), *req.Online)
	c.JSON(http.StatusOK, dto.SyncStatusResponse{SyncStatus: status})
}
