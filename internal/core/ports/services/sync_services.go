package services

import (
	"context"

	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// SyncSvc drives and reports synchronisation with the authoritative store.
type SyncSvc interface {
	// Sync flushes operations queued while offline.
	Sync(ctx context.Context) error

	// ForceSyncAll requests a full resync and reloads every collection.
	ForceSyncAll(ctx context.Context) error

	// SetConnectivity records a platform connectivity event.
	SetConnectivity(ctx context.Context, online bool) domain.SyncStatus

	// RefreshSyncStatus pulls the data layer's status into the store.
	RefreshSyncStatus(ctx context.Context) domain.SyncStatus
}
