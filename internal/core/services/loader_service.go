package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/store"
	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"
)

// LoaderService seeds the store. Every resource settles on its own: a failed read records an
// error for that resource only and never blocks the others.
type LoaderService struct {
	BaseService
	reader portsrepo.ResourceReader
	store  *store.Store
}

// NewLoaderService creates the bulk loader.
func NewLoaderService(reader portsrepo.ResourceReader, st *store.Store, options ...ServiceOption) *LoaderService {
	return &LoaderService{
		BaseService: newBaseService(options...),
		reader:      reader,
		store:       st,
	}
}

var _ portssvc.LoaderSvc = (*LoaderService)(nil)

// LoadAllData reads every resource concurrently. The returned error aggregates per-resource
// failures and is meant for logging; the store already carries each resource's error message.
func (s *LoaderService) LoadAllData(ctx context.Context) error {
	s.store.Dispatch(store.SetLoading(true))
	defer s.store.Dispatch(store.SetLoading(false))

	err := s.load(ctx, domain.AllResources())
	if err != nil {
		s.LogWarn(ctx, "Bulk load finished with failures", slog.String("error", err.Error()))
	} else {
		s.LogInfo(ctx, "Bulk load finished")
	}
	return err
}

func (s *LoaderService) RefreshData(ctx context.Context, resources ...domain.ResourceType) error {
	if len(resources) == 0 {
		return s.LoadAllData(ctx)
	}
	for _, r := range resources {
		if !r.Valid() {
			return fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, r)
		}
	}
	return s.load(ctx, resources)
}

func (s *LoaderService) load(ctx context.Context, resources []domain.ResourceType) error {
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	p := pool.New().WithMaxGoroutines(len(resources))
	for _, resource := range resources {
		p.Go(func() {
			if err := s.loadResource(ctx, resource); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("load %s: %w", resource, err))
				mu.Unlock()
			}
		})
	}
	p.Wait()

	return errs.ErrorOrNil()
}

func (s *LoaderService) loadResource(ctx context.Context, resource domain.ResourceType) error {
	s.store.Dispatch(store.SetResourceLoading(resource, true))
	defer s.store.Dispatch(store.SetResourceLoading(resource, false))

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	entities, err := s.reader.Read(callCtx, resource, domain.ReadQuery{})
	if err != nil {
		classified := apperrors.Classify(err, string(resource))
		s.store.Dispatch(store.SetError(resource, classified.Message))
		s.LogError(ctx, err, "Failed to load resource",
			slog.String("resource", string(resource)),
			slog.String("kind", string(classified.Kind)))
		return err
	}

	s.store.Dispatch(store.Set(resource, entities))
	s.store.Dispatch(store.ClearError(resource))
	s.LogDebug(ctx, "Resource loaded", slog.String("resource", string(resource)), slog.Int("count", len(entities)))
	return nil
}
