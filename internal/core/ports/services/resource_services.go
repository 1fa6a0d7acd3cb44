package services

import (
	"context"
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// ResourceReaderSvc defines read operations that bypass the store.
type ResourceReaderSvc interface {
	// Read delegates to the data layer and never mutates the store.
	Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error)
}

// ResourceWriterSvc defines the CRUD writes. Each dispatches to the store only after the data
// layer accepted the write.
type ResourceWriterSvc interface {
	Create(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (domain.Entity, error)
	Update(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error)

	// UpdateIfUnchanged behaves like Update but fails with apperrors.ErrConflict when the stored
	// entity's updatedAt differs from expectedUpdatedAt.
	UpdateIfUnchanged(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity, expectedUpdatedAt time.Time) (domain.Entity, error)

	Delete(ctx context.Context, resource domain.ResourceType, id string) error
}

// ResourceStateSvc defines bookkeeping operations on per-resource state.
type ResourceStateSvc interface {
	// ClearError drops the recorded error message for resource.
	ClearError(resource domain.ResourceType)

	// InvalidateCache drops cached reads for resource, or for a single id when id is non-empty.
	InvalidateCache(ctx context.Context, resource domain.ResourceType, id string)
}

// ResourceSvcFacade combines all resource-related service interfaces.
type ResourceSvcFacade interface {
	ResourceReaderSvc
	ResourceWriterSvc
	ResourceStateSvc
}

// LoaderSvc seeds and refreshes the store from the data layer.
type LoaderSvc interface {
	// LoadAllData reads every resource concurrently and settles each one independently.
	LoadAllData(ctx context.Context) error

	// RefreshData re-reads the given resources, or all of them when none are given.
	RefreshData(ctx context.Context, resources ...domain.ResourceType) error
}
