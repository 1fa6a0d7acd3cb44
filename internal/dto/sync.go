package dto

import "github.com/SscSPs/finance_sync/internal/core/domain"

// ConnectivityRequest reports a platform connectivity change.
type ConnectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// InvalidateCacheRequest names the cached reads to drop. An empty ID drops the whole resource.
type InvalidateCacheRequest struct {
	Resource domain.ResourceType `json:"resource" binding:"required"`
	ID       string              `json:"id"`
}

// RefreshRequest optionally narrows a refresh to some resources.
type RefreshRequest struct {
	Resources []domain.ResourceType `json:"resources"`
}

// SyncStatusResponse defines the data returned after a sync operation.
type SyncStatusResponse struct {
	domain.SyncStatus
	Message string `json:"message,omitempty"`
}
