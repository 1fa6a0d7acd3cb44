package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/store"
)

// ConnectivityReporter is implemented by data layers that want to hear platform connectivity events.
type ConnectivityReporter interface {
	SetOnline(online bool)
}

// SyncService flushes queued work and mirrors the data layer's sync status into the store.
// The status is advisory: nothing here gates CRUD calls.
type SyncService struct {
	BaseService
	coordinator portsrepo.SyncCoordinator
	loader      portssvc.LoaderSvc
	store       *store.Store

	mu          sync.Mutex
	stopPoller  context.CancelFunc
	pollerDone  chan struct{}
	unsubscribe func()
}

// NewSyncService creates the sync service.
func NewSyncService(coordinator portsrepo.SyncCoordinator, loader portssvc.LoaderSvc, st *store.Store, options ...ServiceOption) *SyncService {
	return &SyncService{
		BaseService: newBaseService(options...),
		coordinator: coordinator,
		loader:      loader,
		store:       st,
	}
}

var _ portssvc.SyncSvc = (*SyncService)(nil)

// Sync flushes operations queued while offline. Local state is never rolled back on failure.
func (s *SyncService) Sync(ctx context.Context) error {
	pending := s.store.View().PendingOperations

	callCtx, cancel := s.withTimeout(ctx)
	err := s.coordinator.SyncPendingOperations(callCtx)
	cancel()
	status := s.RefreshSyncStatus(ctx)

	if err != nil {
		classified := apperrors.Classify(err, "sync")
		s.LogError(ctx, err, "Sync failed", slog.Int("pending_operations", status.PendingOperations))
		s.notify(ctx, domain.NotifyError, "", "Sync failed", classified.Message)
		s.Track(ctx, "sync_failed", map[string]any{"pending_operations": status.PendingOperations})
		return err
	}

	s.LogInfo(ctx, "Sync completed", slog.Int("flushed", pending-status.PendingOperations))
	if pending > 0 {
		s.notify(ctx, domain.NotifySuccess, "", "Synced", "All offline changes have been synced.")
	}
	s.Track(ctx, "sync_completed", map[string]any{"flushed": pending - status.PendingOperations})
	return nil
}

// ForceSyncAll requests a full resync and reloads every collection from the authoritative store.
func (s *SyncService) ForceSyncAll(ctx context.Context) error {
	callCtx, cancel := s.withTimeout(ctx)
	err := s.coordinator.ForceSyncAll(callCtx)
	cancel()
	if err != nil {
		classified := apperrors.Classify(err, "sync")
		s.LogError(ctx, err, "Force sync failed")
		s.notify(ctx, domain.NotifyError, "", "Sync failed", classified.Message)
		s.RefreshSyncStatus(ctx)
		return err
	}

	if loadErr := s.loader.LoadAllData(ctx); loadErr != nil {
		s.LogWarn(ctx, "Reload after force sync was partial", slog.String("error", loadErr.Error()))
	}
	s.RefreshSyncStatus(ctx)
	s.Track(ctx, "sync_forced", nil)
	return nil
}

// SetConnectivity records a platform connectivity event. Coming back online with queued work
// triggers a sync.
func (s *SyncService) SetConnectivity(ctx context.Context, online bool) domain.SyncStatus {
	if reporter, ok := s.coordinator.(ConnectivityReporter); ok {
		reporter.SetOnline(online)
	}
	status := s.coordinator.GetSyncStatus()
	status.IsOnline = online
	s.store.Dispatch(store.SetOnlineStatus(status))
	s.LogInfo(ctx, "Connectivity changed", slog.Bool("online", online), slog.Int("pending_operations", status.PendingOperations))

	if online && status.PendingOperations > 0 {
		// a failed sync is already reported; the queue stays for the next attempt
		_ = s.Sync(ctx)
		return s.store.View().SyncStatus()
	}
	return status
}

// RefreshSyncStatus pulls the data layer's status into the store.
func (s *SyncService) RefreshSyncStatus(ctx context.Context) domain.SyncStatus {
	status := s.coordinator.GetSyncStatus()
	s.store.Dispatch(store.SetOnlineStatus(status))
	return status
}

// Start subscribes to sync completion reports and polls the status every interval.
// A non-positive interval disables polling.
func (s *SyncService) Start(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return
	}

	s.unsubscribe = s.coordinator.OnSyncComplete(func(status domain.SyncStatus) {
		s.store.Dispatch(store.SetOnlineStatus(status))
	})
	s.RefreshSyncStatus(ctx)

	if interval <= 0 {
		return
	}
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopPoller = cancel
	s.pollerDone = make(chan struct{})
	go s.poll(pollCtx, interval, s.pollerDone)
}

func (s *SyncService) poll(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshSyncStatus(ctx)
		}
	}
}

// Stop undoes Start and waits for the poller to exit.
func (s *SyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.stopPoller != nil {
		s.stopPoller()
		<-s.pollerDone
		s.stopPoller = nil
		s.pollerDone = nil
	}
}
