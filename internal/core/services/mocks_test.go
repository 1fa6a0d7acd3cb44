package services_test

import (
	"context"
	"sync"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	"github.com/stretchr/testify/mock"
)

// MockDataLayer is a mock type for the DataLayer interface
type MockDataLayer struct {
	mock.Mock
}

var _ repositories.DataLayer = (*MockDataLayer)(nil)

func (m *MockDataLayer) Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	args := m.Called(ctx, resource, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entity), args.Error(1)
}

func (m *MockDataLayer) Create(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (repositories.MutationResult, error) {
	args := m.Called(ctx, resource, entity)
	if fn, ok := args.Get(0).(func(context.Context, domain.ResourceType, domain.Entity) repositories.MutationResult); ok {
		return fn(ctx, resource, entity), args.Error(1)
	}
	return args.Get(0).(repositories.MutationResult), args.Error(1)
}

func (m *MockDataLayer) Update(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (repositories.MutationResult, error) {
	args := m.Called(ctx, resource, id, entity)
	if fn, ok := args.Get(0).(func(context.Context, domain.ResourceType, string, domain.Entity) repositories.MutationResult); ok {
		return fn(ctx, resource, id, entity), args.Error(1)
	}
	return args.Get(0).(repositories.MutationResult), args.Error(1)
}

func (m *MockDataLayer) Delete(ctx context.Context, resource domain.ResourceType, id string) (repositories.MutationResult, error) {
	args := m.Called(ctx, resource, id)
	return args.Get(0).(repositories.MutationResult), args.Error(1)
}

func (m *MockDataLayer) GetSyncStatus() domain.SyncStatus {
	args := m.Called()
	return args.Get(0).(domain.SyncStatus)
}

func (m *MockDataLayer) OnSyncComplete(callback func(domain.SyncStatus)) func() {
	args := m.Called(callback)
	return args.Get(0).(func())
}

func (m *MockDataLayer) SyncPendingOperations(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDataLayer) ForceSyncAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDataLayer) InvalidateCache(resource domain.ResourceType, id string) {
	m.Called(resource, id)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) levels() []domain.NotificationLevel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationLevel, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Level)
	}
	return out
}

func (r *recordingNotifier) last() domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return domain.Notification{}
	}
	return r.sent[len(r.sent)-1]
}
