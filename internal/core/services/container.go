package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/store"
)

// ContainerConfig tunes the services built by NewContainer.
type ContainerConfig struct {
	DataLayerTimeout    time.Duration
	SyncStatusInterval  time.Duration
	NotificationHistory int
	MetricsCacheSize    int
}

// Container holds all the services and manages their dependencies and lifecycle. Each container
// owns its own store, so tests can build independent instances.
type Container struct {
	Store         *store.Store
	Notifications *NotificationCenter
	Resources     *ResourceService
	Loader        *LoaderService
	Sync          *SyncService
	Metrics       *MetricsService
	Finance       *FinanceService

	cfg    ContainerConfig
	logger *slog.Logger

	mu             sync.Mutex
	initialized    bool
	unsubscribeLog func()
}

// NewContainer wires every service around one store and the given data layer. Options apply to
// every service after the container's own notifier and timeout.
func NewContainer(cfg ContainerConfig, dataLayer portsrepo.DataLayer, logger *slog.Logger, options ...ServiceOption) (*Container, error) {
	if dataLayer == nil {
		return nil, errors.New("data layer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Store:         store.New(logger),
		Notifications: NewNotificationCenter(cfg.NotificationHistory),
		cfg:           cfg,
		logger:        logger,
	}

	opts := append([]ServiceOption{
		WithNotifier(c.Notifications),
		WithTimeout(cfg.DataLayerTimeout),
	}, options...)

	c.Resources = NewResourceService(dataLayer, c.Store, opts...)
	c.Loader = NewLoaderService(dataLayer, c.Store, opts...)
	c.Sync = NewSyncService(dataLayer, c.Loader, c.Store, opts...)
	c.Finance = NewFinanceService(c.Resources, c.Store, opts...)

	metrics, err := NewMetricsService(c.Store, cfg.MetricsCacheSize, opts...)
	if err != nil {
		return nil, err
	}
	c.Metrics = metrics

	return c, nil
}

// Init subscribes to sync status, starts the status poller and seeds the store. A partial load
// is logged, not returned: the failing resources carry their own error messages.
func (c *Container) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return errors.New("container already initialized")
	}

	c.unsubscribeLog = c.Store.Subscribe(func(action store.Action, state store.State) {
		c.logger.Debug("State updated", slog.String("action", action.Name()), slog.Uint64("version", state.Version))
	})
	c.Sync.Start(ctx, c.cfg.SyncStatusInterval)

	if err := c.Loader.LoadAllData(ctx); err != nil {
		c.logger.Warn("Initial load incomplete", slog.String("error", err.Error()))
	}
	c.initialized = true
	return nil
}

// Dispose stops background work. The container may be initialized again afterwards.
func (c *Container) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return
	}
	c.Sync.Stop()
	if c.unsubscribeLog != nil {
		c.unsubscribeLog()
		c.unsubscribeLog = nil
	}
	c.initialized = false
}

// Services exposes the container through the handler-facing facades.
func (c *Container) Services() *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		State:         c.Store,
		Resources:     c.Resources,
		Loader:        c.Loader,
		Sync:          c.Sync,
		Metrics:       c.Metrics,
		Finance:       c.Finance,
		Notifications: c.Notifications,
	}
}

// Typed accessors, one per resource.

func (c *Container) Transactions() *ResourceHandle[domain.Transaction, *domain.Transaction] {
	return NewResourceHandle[domain.Transaction](domain.Transactions, c.Store, c.Resources, c.Loader)
}

func (c *Container) Accounts() *ResourceHandle[domain.Account, *domain.Account] {
	return NewResourceHandle[domain.Account](domain.Accounts, c.Store, c.Resources, c.Loader)
}

func (c *Container) Goals() *ResourceHandle[domain.Goal, *domain.Goal] {
	return NewResourceHandle[domain.Goal](domain.Goals, c.Store, c.Resources, c.Loader)
}

func (c *Container) Contacts() *ResourceHandle[domain.Contact, *domain.Contact] {
	return NewResourceHandle[domain.Contact](domain.Contacts, c.Store, c.Resources, c.Loader)
}

func (c *Container) Trips() *ResourceHandle[domain.Trip, *domain.Trip] {
	return NewResourceHandle[domain.Trip](domain.Trips, c.Store, c.Resources, c.Loader)
}

func (c *Container) Investments() *ResourceHandle[domain.Investment, *domain.Investment] {
	return NewResourceHandle[domain.Investment](domain.Investments, c.Store, c.Resources, c.Loader)
}

func (c *Container) SharedDebts() *ResourceHandle[domain.SharedDebt, *domain.SharedDebt] {
	return NewResourceHandle[domain.SharedDebt](domain.SharedDebts, c.Store, c.Resources, c.Loader)
}
