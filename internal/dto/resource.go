package dto

import (
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/store"
	"github.com/SscSPs/finance_sync/internal/utils/pagination"
)

// ListResourceResponse defines the data returned for a collection read.
type ListResourceResponse struct {
	Resource   domain.ResourceType `json:"resource"`
	Items      []domain.Entity     `json:"items"`
	NextCursor string              `json:"nextCursor,omitempty"`
}

// ToListResourceResponse builds the list response. A next cursor is only set when the page is
// full, since a short page means the collection is exhausted.
func ToListResourceResponse(resource domain.ResourceType, items []domain.Entity, limit int) ListResourceResponse {
	if items == nil {
		items = []domain.Entity{}
	}
	res := ListResourceResponse{Resource: resource, Items: items}
	if limit > 0 && len(items) == limit {
		last := items[len(items)-1]
		res.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.GetAudit().CreatedAt,
			ID:        last.GetID(),
		})
	}
	return res
}

// ResourceStateResponse describes one collection as held in the store.
type ResourceStateResponse struct {
	Items   []domain.Entity `json:"items"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
}

// StateResponse is the full store view served to the UI.
type StateResponse struct {
	Resources         map[domain.ResourceType]ResourceStateResponse `json:"resources"`
	Loading           bool                                          `json:"loading"`
	IsOnline          bool                                          `json:"isOnline"`
	PendingOperations int                                           `json:"pendingOperations"`
	LastSync          *time.Time                                    `json:"lastSync,omitempty"`
	Version           uint64                                        `json:"version"`
}

// ToStateResponse converts a store snapshot into its response shape.
func ToStateResponse(s store.State) StateResponse {
	res := StateResponse{
		Resources:         make(map[domain.ResourceType]ResourceStateResponse, len(s.Collections)),
		Loading:           s.Loading,
		IsOnline:          s.IsOnline,
		PendingOperations: s.PendingOperations,
		LastSync:          s.LastSync,
		Version:           s.Version,
	}
	for _, r := range domain.AllResources() {
		items := s.Collection(r)
		if items == nil {
			items = []domain.Entity{}
		}
		msg, _ := s.Error(r)
		res.Resources[r] = ResourceStateResponse{
			Items:   items,
			Loading: s.ResourceLoading[r],
			Error:   msg,
		}
	}
	return res
}

// ListResourceParams defines the paging query parameters for a collection read. Any other query
// parameter is passed through as a field filter.
type ListResourceParams struct {
	Limit  int    `form:"limit" binding:"omitempty,min=0,max=1000"`
	Cursor string `form:"cursor"`
}

// UpdateResourceParams carries the optional compare-and-swap precondition of an update.
type UpdateResourceParams struct {
	ExpectedUpdatedAt *time.Time `form:"expectedUpdatedAt" time_format:"2006-01-02T15:04:05.999999999Z07:00"`
}
