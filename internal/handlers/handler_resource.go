package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/dto"
	"github.com/SscSPs/finance_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

// resourceHandler handles the generic CRUD and state routes shared by every resource type.
type resourceHandler struct {
	resources portssvc.ResourceSvcFacade
	loader    portssvc.LoaderSvc
	state     portssvc.StateReader
}

func newResourceHandler(resources portssvc.ResourceSvcFacade, loader portssvc.LoaderSvc, state portssvc.StateReader) *resourceHandler {
	return &resourceHandler{resources: resources, loader: loader, state: state}
}

// registerResourceRoutes registers the store and CRUD routes.
func registerResourceRoutes(rg *gin.RouterGroup, resources portssvc.ResourceSvcFacade, loader portssvc.LoaderSvc, state portssvc.StateReader) {
	h := newResourceHandler(resources, loader, state)

	rg.GET("/state", h.getState)
	rg.POST("/refresh", h.refreshAll)
	rg.DELETE("/errors/:resource", h.clearError)
	rg.POST("/cache/invalidate", h.invalidateCache)

	items := rg.Group("/resources/:resource")
	{
		items.GET("", h.listResources)
		items.POST("", h.createResource)
		items.POST("/refresh", h.refreshResource)
		items.GET("/:id", h.getResource)
		items.PUT("/:id", h.updateResource)
		items.DELETE("/:id", h.deleteResource)
	}
}

// resourceParam validates the :resource path segment, writing a 400 when it is unknown.
func resourceParam(c *gin.Context) (domain.ResourceType, bool) {
	resource, err := domain.ParseResourceType(c.Param("resource"))
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Unknown resource type", slog.String("resource", c.Param("resource")))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return resource, true
}

// decodeBody reads the request body into the concrete entity type for resource.
func decodeBody(c *gin.Context, resource domain.ResourceType) (domain.Entity, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		logger.Warn("Missing request body", slog.String("resource", string(resource)))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
		return nil, false
	}
	entity, err := domain.DecodeEntity(resource, raw)
	if err != nil {
		logger.Warn("Failed to decode entity", slog.String("resource", string(resource)), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return nil, false
	}
	return entity, true
}

// getState godoc
// @Summary Get the full store state
// @Description Returns every collection with its loading flag and error, plus the sync status
// @Tags state
// @Produce json
// @Success 200 {object} dto.StateResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /state [get]
func (h *resourceHandler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToStateResponse(h.state.Snapshot()))
}

// listResources godoc
// @Summary List a resource collection from the data layer
// @Description Reads through the data layer without touching the store. Query parameters other than limit and cursor filter on entity fields.
// @Tags resources
// @Produce json
// @Param resource path string true "Resource type" Enums(transactions, accounts, goals, contacts, trips, investments, shared-debts)
// @Param limit query int false "Page size (0 = unbounded)"
// @Param cursor query string false "Cursor returned by the previous page"
// @Success 200 {object} dto.ListResourceResponse
// @Failure 400 {object} map[string]string "Unknown resource or bad query"
// @Failure 503 {object} map[string]string "Data layer unreachable"
// @Security BearerAuth
// @Router /resources/{resource} [get]
func (h *resourceHandler) listResources(c *gin.Context) {
	resource, ok := resourceParam(c)
	if !ok {
		return
	}

	var params dto.ListResourceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Invalid list parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	query := domain.ReadQuery{Params: make(map[string]string)}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query.Params[key] = values[0]
		}
	}

	items, err := h.resources.Read(c.Request.Context(), resource, query)
	if err != nil {
		respondError(c, err, string(resource), "Failed to list resources")
		return
	}
	c.JSON(http.StatusOK, dto.ToListResourceResponse(resource, items, params.Limit))
}

// getResource godoc
// @Summary Get a single entity from the data layer
// @Tags resources
// @Produce json
// @Param resource path string true "Resource type"
// @Param id path string true "Entity ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /resources/{resource}/{id} [get]
func (h *resourceHandler) getResource(c *gin.Context) {
	resource, ok := resourceParam(c)
	if !ok {
		return
	}
	id := c.Param("id")

	items, err := h.resources.Read(c.Request.Context(), resource, domain.ReadQuery{ID: id})
	if err != nil {
		respondError(c, err, string(resource), "Failed to get resource")
		return
	}
	if len(items) == 0 {
		respondError(c, fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, resource, id), string(resource), "Resource not found")
		return
	}
	c.JSON(http.StatusOK, items[0])
}

// createResource godoc
// @Summary Create an entity
// @Description Writes through the data layer and adds the stored entity to the store. While offline the write is queued and the response carries the locally assigned id.
// @Tags resources
// @Accept json
// @Produce json
// @Param resource path string true "Resource type"
// @Param entity body object true "Entity payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid input or validation error"
// @Failure 409 {object} map[string]string "Duplicate entity"
// @Security BearerAuth
// @Router /resources/{resource} [post]
func (h *resourceHandler) createResource(c *gin.Context) {
	resource, ok := resourceParam(c)
	if !ok {
		return
	}
	entity, ok := decodeBody(c, resource)
	if !ok {
		return
	}

	created, err := h.resources.Create(c.Request.Context(), resource, entity)
	if err != nil {
		respondError(c, err, string(resource), "Failed to create resource")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// updateResource godoc
// @Summary Replace an entity
// @Description Last write wins unless expectedUpdatedAt is given, in which case the update fails with 409 when the stored entity changed since.
// @Tags resources
// @Accept json
// @Produce json
// @Param resource path string true "Resource type"
// @Param id path string true "Entity ID"
// @Param expectedUpdatedAt query string false "RFC3339 timestamp the caller last saw"
// @Param entity body object true "Entity payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid input or validation error"
// @Failure 404 {object} map[string]string "Entity not found"
// @Failure 409 {object} map[string]string "Entity changed concurrently"
// @Security BearerAuth
// @Router /resources/{resource}/{id} [put]
func (h *resourceHandler) updateResource(c *gin.Context) {
	resource, ok := resourceParam(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var params dto.UpdateResourceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Invalid update parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	entity, ok := decodeBody(c, resource)
	if !ok {
		return
	}

	var (
		updated domain.Entity
		err     error
	)
	if params.ExpectedUpdatedAt != nil {
		updated, err = h.resources.UpdateIfUnchanged(c.Request.Context(), resource, id, entity, *params.ExpectedUpdatedAt)
	} else {
		updated, err = h.resources.Update(c.Request.Context(), resource, id, entity)
	}
	if err != nil {
		respondError(c, err, string(resource), "Failed to update resource")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// deleteResource godoc
// @Summary Delete an entity
// @Tags resources
// @Param resource path string true "Resource type"
// @Param id path string true "Entity ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /resources/{resource}/{id} [delete]
func (h *resourceHandler) deleteResource(c *gin.Context) {
	resource, ok := resourceParam(c)
	if !ok {
		return
	}
	if err := h.resources.Delete(c.Request.Context(), resource, c.Param("id")); err != nil {
		respondError(c, err, string(resource), "Failed to delete resource")
		return
	}
	c.Status(http.StatusNoContent)
}

// refreshResource godoc
// @Summary Reload one collection into the store
// @Tags state
// @Produce json
// @Param resource path string true "Resource type"
// @Success 200 {object} dto.ResourceStateResponse
// @Failure 503 {object} map[string]string "Data layer unreachable"
// @Security BearerAuth
// @Router /resources/{resource}/refresh [post]
func (h *resourceHandler) refreshResource(c *gin.Context) {
	resource, ok := resourceParam(c)
	if !ok {
		return
	}
	if err := h.loader.RefreshData(c.Request.Context(), resource); err != nil {
		respondError(c, err, string(resource), "Failed to refresh resource")
		return
	}
	c.JSON(http.StatusOK, dto.ToStateResponse(h.state.Snapshot()).Resources[resource])
}

// refreshAll godoc
// @Summary Reload collections into the store
// @Description Reloads the listed resources, or all of them when the body is empty. Each resource settles independently.
// @Tags state
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest false "Resources to refresh"
// @Success 200 {object} dto.StateResponse
// @Failure 400 {object} map[string]string "Unknown resource"
// @Failure 503 {object} map[string]string "Data layer unreachable"
// @Security BearerAuth
// @Router /refresh [post]
func (h *resourceHandler) refreshAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for RefreshData", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}
	for _, r := range req.Resources {
		if !r.Valid() {
			respondError(c, fmt.Errorf("%w: %q", apperrors.ErrUnknownResource, r), string(r), "Unknown resource in refresh")
			return
		}
	}

	if err := h.loader.RefreshData(c.Request.Context(), req.Resources...); err != nil {
		respondError(c, err, "data", "Refresh incomplete")
		return
	}
	c.JSON(http.StatusOK, dto.ToStateResponse(h.state.Snapshot()))
}

// clearError godoc
// @Summary Clear the recorded error of a resource
// @Tags state
// @Param resource path string true "Resource type"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /errors/{resource} [delete]
func (h *resourceHandler) clearError(c *gin.Context) {
	resource, ok := resourceParam(c)
	if !ok {
		return
	}
	h.resources.ClearError(resource)
	c.Status(http.StatusNoContent)
}

// invalidateCache godoc
// @Summary Drop cached data-layer reads
// @Tags state
// @Accept json
// @Param request body dto.InvalidateCacheRequest true "Resource and optional id"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Unknown resource"
// @Security BearerAuth
// @Router /cache/invalidate [post]
func (h *resourceHandler) invalidateCache(c *gin.Context) {
	var req dto.InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON for InvalidateCache", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !req.Resource.Valid() {
		respondError(c, fmt.Errorf("%w: %q", apperrors.ErrUnknownResource, req.Resource), string(req.Resource), "Unknown resource in cache invalidation")
		return
	}
	h.resources.InvalidateCache(c.Request.Context(), req.Resource, req.ID)
	c.Status(http.StatusNoContent)
}
