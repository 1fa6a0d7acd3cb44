package datalayer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/finance_sync/internal/adapters/datalayer"
	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// switchableRepo is an in-memory repository that can be taken offline and counts reads.
type switchableRepo struct {
	*memory.ResourceRepository

	mu    sync.Mutex
	down  bool
	reads int
}

func (r *switchableRepo) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *switchableRepo) check() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return apperrors.ErrConnectivity
	}
	return nil
}

func (r *switchableRepo) Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.reads++
	r.mu.Unlock()
	return r.ResourceRepository.Read(ctx, resource, query)
}

func (r *switchableRepo) Insert(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (domain.Entity, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.ResourceRepository.Insert(ctx, resource, entity)
}

func (r *switchableRepo) Replace(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.ResourceRepository.Replace(ctx, resource, id, entity)
}

func (r *switchableRepo) Remove(ctx context.Context, resource domain.ResourceType, id string) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.ResourceRepository.Remove(ctx, resource, id)
}

func (r *switchableRepo) Ping(ctx context.Context) error {
	return r.check()
}

type OfflineDataLayerTestSuite struct {
	suite.Suite
	ctx  context.Context
	now  time.Time
	repo *switchableRepo
	dl   *datalayer.OfflineDataLayer
}

func (s *OfflineDataLayerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s.repo = &switchableRepo{ResourceRepository: memory.NewResourceRepository()}
	dl, err := datalayer.NewOfflineDataLayer(s.repo, datalayer.WithClock(func() time.Time { return s.now }), datalayer.WithCacheSize(16))
	s.Require().NoError(err)
	s.dl = dl
}

func TestOfflineDataLayerTestSuite(t *testing.T) {
	suite.Run(t, new(OfflineDataLayerTestSuite))
}

func (s *OfflineDataLayerTestSuite) contacts() []domain.Entity {
	s.dl.InvalidateCache(domain.Contacts, "")
	got, err := s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{})
	s.Require().NoError(err)
	return got
}

func (s *OfflineDataLayerTestSuite) TestOnlineWritesGoStraightThrough() {
	res, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Ana"})
	s.Require().NoError(err)

	s.False(res.Offline)
	s.NotEmpty(res.Entity.GetID())
	s.Len(s.contacts(), 1)
	s.Equal(0, s.dl.GetSyncStatus().PendingOperations)
}

func (s *OfflineDataLayerTestSuite) TestConnectivityFailureQueuesWrite() {
	s.repo.setDown(true)

	res, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Ana"})
	s.Require().NoError(err)

	s.True(res.Offline)
	s.NotEmpty(res.Entity.GetID(), "offline creates get a local id")
	status := s.dl.GetSyncStatus()
	s.False(status.IsOnline)
	s.Equal(1, status.PendingOperations)

	pending := s.dl.Pending()
	s.Require().Len(pending, 1)
	s.Equal(datalayer.OpCreate, pending[0].Kind)
	s.Equal(s.now, pending[0].QueuedAt)
}

func (s *OfflineDataLayerTestSuite) TestNonConnectivityErrorIsReturned() {
	_, err := s.dl.Update(s.ctx, domain.Contacts, "missing", &domain.Contact{Name: "Ana"})

	s.ErrorIs(err, apperrors.ErrNotFound)
	s.Equal(0, s.dl.GetSyncStatus().PendingOperations)
}

func (s *OfflineDataLayerTestSuite) TestReplayAppliesQueueInOrder() {
	seeded, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Seed"})
	s.Require().NoError(err)
	seedID := seeded.Entity.GetID()

	s.repo.setDown(true)
	_, err = s.dl.Update(s.ctx, domain.Contacts, seedID, &domain.Contact{Name: "Seed v2"})
	s.Require().NoError(err)
	created, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Offline"})
	s.Require().NoError(err)
	s.Require().Len(s.dl.Pending(), 2)

	var reports []domain.SyncStatus
	unsubscribe := s.dl.OnSyncComplete(func(status domain.SyncStatus) { reports = append(reports, status) })
	defer unsubscribe()

	s.Error(s.dl.SyncPendingOperations(s.ctx), "still offline")
	s.Len(s.dl.Pending(), 2)

	s.repo.setDown(false)
	s.Require().NoError(s.dl.SyncPendingOperations(s.ctx))

	status := s.dl.GetSyncStatus()
	s.True(status.IsOnline)
	s.Equal(0, status.PendingOperations)
	s.Require().NotNil(status.LastSync)
	s.Equal(s.now, *status.LastSync)

	s.Require().Len(reports, 2)
	s.Equal(2, reports[0].PendingOperations)
	s.Equal(0, reports[1].PendingOperations)

	names := map[string]string{}
	for _, e := range s.contacts() {
		names[e.GetID()] = e.(*domain.Contact).Name
	}
	s.Equal("Seed v2", names[seedID])
	s.Equal("Offline", names[created.Entity.GetID()])
}

func (s *OfflineDataLayerTestSuite) TestReplayDropsRejectedOperations() {
	s.repo.setDown(true)
	_, err := s.dl.Update(s.ctx, domain.Contacts, "ghost", &domain.Contact{Name: "Ghost"})
	s.Require().NoError(err)
	_, err = s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Real"})
	s.Require().NoError(err)

	s.repo.setDown(false)
	err = s.dl.SyncPendingOperations(s.ctx)

	s.ErrorIs(err, apperrors.ErrNotFound)
	s.Equal(0, s.dl.GetSyncStatus().PendingOperations)
	s.Len(s.contacts(), 1)
}

func (s *OfflineDataLayerTestSuite) TestQueuedCreateFoldsLaterWrites() {
	s.repo.setDown(true)
	created, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Draft"})
	s.Require().NoError(err)
	id := created.Entity.GetID()

	_, err = s.dl.Update(s.ctx, domain.Contacts, id, &domain.Contact{Name: "Final"})
	s.Require().NoError(err)
	pending := s.dl.Pending()
	s.Require().Len(pending, 1)
	s.Equal("Final", pending[0].Entity.(*domain.Contact).Name)

	result, err := s.dl.Delete(s.ctx, domain.Contacts, id)
	s.Require().NoError(err)
	s.True(result.Offline)
	s.Empty(s.dl.Pending())
}

func (s *OfflineDataLayerTestSuite) TestWritesQueueBehindPendingOperations() {
	s.repo.setDown(true)
	_, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "First"})
	s.Require().NoError(err)

	s.repo.setDown(false)
	s.dl.SetOnline(true)
	res, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Second"})
	s.Require().NoError(err)

	s.True(res.Offline)
	s.Len(s.dl.Pending(), 2)
}

func (s *OfflineDataLayerTestSuite) TestReadsAreCachedUntilAWrite() {
	_, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Ana"})
	s.Require().NoError(err)

	_, err = s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{})
	s.Require().NoError(err)
	first, err := s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{})
	s.Require().NoError(err)
	s.Equal(1, s.repo.reads)

	first[0].(*domain.Contact).Name = "tampered"
	again, err := s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{})
	s.Require().NoError(err)
	s.Equal("Ana", again[0].(*domain.Contact).Name, "cached results are copies")

	_, err = s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Bo"})
	s.Require().NoError(err)
	after, err := s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{})
	s.Require().NoError(err)
	s.Len(after, 2)
	s.Equal(2, s.repo.reads)
}

func (s *OfflineDataLayerTestSuite) TestForceSyncAllPurgesCache() {
	_, err := s.dl.Read(s.ctx, domain.Goals, domain.ReadQuery{})
	s.Require().NoError(err)

	s.Require().NoError(s.dl.ForceSyncAll(s.ctx))
	_, err = s.dl.Read(s.ctx, domain.Goals, domain.ReadQuery{})
	s.Require().NoError(err)

	s.Equal(2, s.repo.reads)
}

func TestOfflineDataLayer_ReadWhileOfflineReportsConnectivity(t *testing.T) {
	repo := &switchableRepo{ResourceRepository: memory.NewResourceRepository()}
	dl, err := datalayer.NewOfflineDataLayer(repo)
	require.NoError(t, err)
	repo.setDown(true)

	_, err = dl.Read(context.Background(), domain.Trips, domain.ReadQuery{})

	assert.ErrorIs(t, err, apperrors.ErrConnectivity)
	assert.False(t, dl.GetSyncStatus().IsOnline)
}

func (s *OfflineDataLayerTestSuite) TestReadsIncludeQueuedWrites() {
	ana, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Ana"})
	s.Require().NoError(err)
	bo, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Bo"})
	s.Require().NoError(err)

	s.repo.setDown(true)
	cy, err := s.dl.Create(s.ctx, domain.Contacts, &domain.Contact{Name: "Cy"})
	s.Require().NoError(err)
	_, err = s.dl.Update(s.ctx, domain.Contacts, ana.Entity.GetID(), &domain.Contact{Name: "Ana v2"})
	s.Require().NoError(err)
	_, err = s.dl.Delete(s.ctx, domain.Contacts, bo.Entity.GetID())
	s.Require().NoError(err)
	s.repo.setDown(false)

	names := map[string]string{}
	for _, e := range s.contacts() {
		names[e.GetID()] = e.(*domain.Contact).Name
	}
	s.Equal(map[string]string{ana.Entity.GetID(): "Ana v2", cy.Entity.GetID(): "Cy"}, names)
	s.Len(s.dl.Pending(), 3, "reading does not flush the queue")

	one, err := s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{ID: cy.Entity.GetID()})
	s.Require().NoError(err)
	s.Require().Len(one, 1)
	s.Equal("Cy", one[0].(*domain.Contact).Name)

	_, err = s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{ID: bo.Entity.GetID()})
	s.ErrorIs(err, apperrors.ErrNotFound)

	filtered, err := s.dl.Read(s.ctx, domain.Contacts, domain.ReadQuery{Params: map[string]string{"name": "cy"}})
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(cy.Entity.GetID(), filtered[0].GetID())
}
