package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/dto"
	"github.com/SscSPs/finance_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

const defaultNotificationLimit = 20

// dashboardHandler serves the derived metrics and the notification feed.
type dashboardHandler struct {
	metrics       portssvc.MetricsSvc
	notifications portssvc.NotificationReaderSvc
	now           func() time.Time
}

func newDashboardHandler(metrics portssvc.MetricsSvc, notifications portssvc.NotificationReaderSvc) *dashboardHandler {
	return &dashboardHandler{metrics: metrics, notifications: notifications, now: time.Now}
}

// registerDashboardRoutes registers routes related to the dashboard.
func registerDashboardRoutes(rg *gin.RouterGroup, metrics portssvc.MetricsSvc, notifications portssvc.NotificationReaderSvc) {
	h := newDashboardHandler(metrics, notifications)

	rg.GET("/dashboard", h.getDashboard)
	rg.GET("/notifications", h.listNotifications)
}

// getDashboard godoc
// @Summary Get dashboard metrics
// @Description Computes the metrics for the calendar month containing date (default today).
// @Tags dashboard
// @Produce json
// @Param date query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} domain.DashboardMetrics
// @Failure 400 {object} map[string]string "Invalid date"
// @Security BearerAuth
// @Router /dashboard [get]
func (h *dashboardHandler) getDashboard(c *gin.Context) {
	ref := h.now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, ref.Location())
		if err != nil {
			middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Invalid dashboard date", slog.String("date", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
			return
		}
		ref = parsed
	}
	c.JSON(http.StatusOK, h.metrics.Dashboard(c.Request.Context(), ref))
}

// listNotifications godoc
// @Summary List recent notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Maximum number of notifications" default(20)
// @Success 200 {object} dto.NotificationsResponse
// @Failure 400 {object} map[string]string "Invalid limit"
// @Security BearerAuth
// @Router /notifications [get]
func (h *dashboardHandler) listNotifications(c *gin.Context) {
	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	c.JSON(http.StatusOK, dto.NotificationsResponse{Notifications: h.notifications.Recent(limit)})
}
