package services

import (
	"github.com/SscSPs/finance_sync/internal/store"
)

// StateReader exposes the store to read-only collaborators.
type StateReader interface {
	// Snapshot returns a deep copy of the current state.
	Snapshot() store.State
}

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	State         StateReader
	Resources     ResourceSvcFacade
	Loader        LoaderSvc
	Sync          SyncSvc
	Metrics       MetricsSvc
	Finance       FinanceSvc
	Notifications NotificationSvcFacade
}
