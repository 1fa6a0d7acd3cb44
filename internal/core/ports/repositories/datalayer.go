package repositories

import (
	"context"

	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// MutationResult is what a data layer returns for a write. Offline is set when the write was
// queued locally instead of reaching the authoritative store.
type MutationResult struct {
	Entity  domain.Entity
	Offline bool
}

// ResourceReader defines read operations over resource collections.
type ResourceReader interface {
	// Read returns the matching entities. With query.ID set it returns exactly one entity or apperrors.ErrNotFound.
	Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error)
}

// ResourceWriter defines write operations over resource collections.
type ResourceWriter interface {
	// Create persists a new entity and returns it with its assigned id and timestamps.
	Create(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (MutationResult, error)

	// Update replaces the entity stored under id.
	Update(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (MutationResult, error)

	// Delete removes the entity stored under id. The result carries no entity; Offline reports a
	// delete that was queued locally.
	Delete(ctx context.Context, resource domain.ResourceType, id string) (MutationResult, error)
}

// SyncCoordinator reports and drives synchronisation with the authoritative store.
type SyncCoordinator interface {
	// GetSyncStatus returns connectivity, queued operation count and the last successful sync.
	GetSyncStatus() domain.SyncStatus

	// OnSyncComplete registers a callback fired after every sync attempt. The returned func unregisters it.
	OnSyncComplete(callback func(domain.SyncStatus)) (unsubscribe func())

	// SyncPendingOperations flushes operations queued while offline.
	SyncPendingOperations(ctx context.Context) error

	// ForceSyncAll flushes the queue and discards any locally cached reads.
	ForceSyncAll(ctx context.Context) error
}

// CacheInvalidator drops cached reads. An empty id drops the whole resource.
type CacheInvalidator interface {
	InvalidateCache(resource domain.ResourceType, id string)
}

// DataLayer combines every operation the synchronisation core consumes.
type DataLayer interface {
	ResourceReader
	ResourceWriter
	SyncCoordinator
	CacheInvalidator
}

// ResourceRepository is the persistence facet implemented by database-backed stores. It has no
// sync coordination of its own; the offline data layer wraps it into a DataLayer.
type ResourceRepository interface {
	ResourceReader

	// Insert stores a new entity, assigning an id when it has none.
	Insert(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (domain.Entity, error)

	// Replace overwrites the entity stored under id. Returns apperrors.ErrNotFound when absent.
	Replace(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error)

	// Remove deletes the entity stored under id. Returns apperrors.ErrNotFound when absent.
	Remove(ctx context.Context, resource domain.ResourceType, id string) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
