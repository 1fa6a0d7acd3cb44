package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/store"
)

type operation string

const (
	opCreate operation = "create"
	opRead   operation = "read"
	opUpdate operation = "update"
	opDelete operation = "delete"
)

// ResourceService is the CRUD orchestrator. It talks to the data layer first and dispatches to the
// store only on success, so a failed write never leaves partial state behind.
type ResourceService struct {
	BaseService
	dataLayer portsrepo.DataLayer
	store     *store.Store
	// casMu serialises compare-and-swap updates between their check and their write.
	casMu sync.Mutex
}

// NewResourceService creates the orchestrator.
func NewResourceService(dataLayer portsrepo.DataLayer, st *store.Store, options ...ServiceOption) *ResourceService {
	return &ResourceService{
		BaseService: newBaseService(options...),
		dataLayer:   dataLayer,
		store:       st,
	}
}

var _ portssvc.ResourceSvcFacade = (*ResourceService)(nil)

func (s *ResourceService) Create(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (domain.Entity, error) {
	if err := checkResource(resource, entity); err != nil {
		return nil, err
	}
	s.begin(resource)
	defer s.end(resource)

	candidate := entity.Clone()
	now := s.now()
	domain.Normalize(candidate, now)
	domain.Stamp(candidate, now)
	if err := candidate.Validate(); err != nil {
		return nil, s.fail(ctx, resource, opCreate, err)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	result, err := s.dataLayer.Create(callCtx, resource, candidate)
	if err != nil {
		return nil, s.fail(ctx, resource, opCreate, err)
	}
	created, err := resultEntity(result, resource)
	if err != nil {
		return nil, s.fail(ctx, resource, opCreate, err)
	}

	s.store.Dispatch(store.Add(resource, created))
	s.notifySaved(ctx, resource, "created", result.Offline)
	s.LogInfo(ctx, "Entity created",
		slog.String("resource", string(resource)),
		slog.String("id", created.GetID()),
		slog.Bool("offline", result.Offline))
	s.Track(ctx, "resource_created", map[string]any{"resource": string(resource), "offline": result.Offline})
	return created.Clone(), nil
}

func (s *ResourceService) Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}
	s.begin(resource)
	defer s.end(resource)

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	entities, err := s.dataLayer.Read(callCtx, resource, query)
	if err != nil {
		return nil, s.fail(ctx, resource, opRead, err)
	}
	s.LogDebug(ctx, "Entities read", slog.String("resource", string(resource)), slog.Int("count", len(entities)))
	return entities, nil
}

func (s *ResourceService) Update(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error) {
	if err := checkResource(resource, entity); err != nil {
		return nil, err
	}
	s.begin(resource)
	defer s.end(resource)
	return s.update(ctx, resource, id, entity)
}

func (s *ResourceService) UpdateIfUnchanged(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity, expectedUpdatedAt time.Time) (domain.Entity, error) {
	if err := checkResource(resource, entity); err != nil {
		return nil, err
	}
	s.begin(resource)
	defer s.end(resource)

	s.casMu.Lock()
	defer s.casMu.Unlock()

	callCtx, cancel := s.withTimeout(ctx)
	current, err := s.dataLayer.Read(callCtx, resource, domain.ReadQuery{ID: id})
	cancel()
	if err != nil {
		return nil, s.fail(ctx, resource, opUpdate, err)
	}
	if len(current) == 0 {
		return nil, s.fail(ctx, resource, opUpdate, fmt.Errorf("%s %s: %w", resource.Singular(), id, apperrors.ErrNotFound))
	}
	stored := current[0].GetAudit().UpdatedAt
	if !stored.Equal(expectedUpdatedAt) {
		s.LogWarn(ctx, "Update rejected, entity changed since it was read",
			slog.String("resource", string(resource)),
			slog.String("id", id),
			slog.Time("expected_updated_at", expectedUpdatedAt),
			slog.Time("stored_updated_at", stored))
		return nil, s.fail(ctx, resource, opUpdate, apperrors.NewAppError(http.StatusConflict,
			"This item was changed somewhere else. Reload it and try again.", apperrors.ErrConflict))
	}
	return s.update(ctx, resource, id, entity)
}

func (s *ResourceService) update(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error) {
	candidate := entity.Clone()
	candidate.SetID(id)
	now := s.now()

	if prev, ok := s.store.View().Find(resource, id); ok {
		audit := candidate.GetAudit()
		if audit.CreatedAt.IsZero() {
			audit.CreatedAt = prev.GetAudit().CreatedAt
			candidate.SetAudit(audit)
		}
		if err := domain.CheckTransition(prev, candidate); err != nil {
			return nil, s.fail(ctx, resource, opUpdate, err)
		}
	}
	domain.Normalize(candidate, now)
	domain.Stamp(candidate, now)
	if err := candidate.Validate(); err != nil {
		return nil, s.fail(ctx, resource, opUpdate, err)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	result, err := s.dataLayer.Update(callCtx, resource, id, candidate)
	if err != nil {
		return nil, s.fail(ctx, resource, opUpdate, err)
	}
	updated, err := resultEntity(result, resource)
	if err != nil {
		return nil, s.fail(ctx, resource, opUpdate, err)
	}

	s.store.Dispatch(store.Update(resource, updated))
	// transaction forms show their own confirmation
	if resource != domain.Transactions || result.Offline {
		s.notifySaved(ctx, resource, "updated", result.Offline)
	}
	s.LogInfo(ctx, "Entity updated",
		slog.String("resource", string(resource)),
		slog.String("id", id),
		slog.Bool("offline", result.Offline))
	s.Track(ctx, "resource_updated", map[string]any{"resource": string(resource), "offline": result.Offline})
	return updated.Clone(), nil
}

func (s *ResourceService) Delete(ctx context.Context, resource domain.ResourceType, id string) error {
	if !resource.Valid() {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}
	s.begin(resource)
	defer s.end(resource)

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	result, err := s.dataLayer.Delete(callCtx, resource, id)
	if err != nil {
		return s.fail(ctx, resource, opDelete, err)
	}

	s.store.Dispatch(store.Remove(resource, id))
	s.notifySaved(ctx, resource, "deleted", result.Offline)
	s.LogInfo(ctx, "Entity deleted",
		slog.String("resource", string(resource)),
		slog.String("id", id),
		slog.Bool("offline", result.Offline))
	s.Track(ctx, "resource_deleted", map[string]any{"resource": string(resource), "offline": result.Offline})
	return nil
}

func (s *ResourceService) ClearError(resource domain.ResourceType) {
	s.store.Dispatch(store.ClearError(resource))
}

func (s *ResourceService) InvalidateCache(ctx context.Context, resource domain.ResourceType, id string) {
	s.dataLayer.InvalidateCache(resource, id)
	s.LogDebug(ctx, "Cache invalidated", slog.String("resource", string(resource)), slog.String("id", id))
}

func (s *ResourceService) begin(resource domain.ResourceType) {
	s.store.Dispatch(store.SetResourceLoading(resource, true))
	s.store.Dispatch(store.ClearError(resource))
}

func (s *ResourceService) end(resource domain.ResourceType) {
	s.store.Dispatch(store.SetResourceLoading(resource, false))
}

// fail records the classified message for resource, reports it on the right channel and returns
// err unchanged.
func (s *ResourceService) fail(ctx context.Context, resource domain.ResourceType, op operation, err error) error {
	classified := apperrors.Classify(err, string(resource))
	s.store.Dispatch(store.SetError(resource, classified.Message))

	attrs := []any{
		slog.String("resource", string(resource)),
		slog.String("operation", string(op)),
		slog.String("kind", string(classified.Kind)),
	}
	switch {
	case classified.Kind == apperrors.KindConnectivity:
		s.LogInfo(ctx, "Data layer unreachable", append(attrs, slog.String("error", err.Error()))...)
		if op != opRead {
			s.notify(ctx, domain.NotifyInfo, resource, "Saved locally", classified.Message)
		}
	case classified.Kind == apperrors.KindAuth:
		s.LogWarn(ctx, "Data layer rejected credentials", append(attrs, slog.String("error", err.Error()))...)
	default:
		s.LogError(ctx, err, "Data layer operation failed", attrs...)
	}
	if classified.Notify() {
		s.notify(ctx, domain.NotifyError, resource, "Could not "+string(op)+" "+label(resource), classified.Message)
	}
	return err
}

func (s *ResourceService) notifySaved(ctx context.Context, resource domain.ResourceType, verb string, offline bool) {
	if offline && verb == "deleted" {
		s.notify(ctx, domain.NotifyInfo, resource, "Saved locally",
			fmt.Sprintf("Your %s was removed on this device. The deletion will sync when you are back online.", label(resource)))
		return
	}
	if offline {
		s.notify(ctx, domain.NotifyInfo, resource, "Saved locally",
			fmt.Sprintf("Your %s was saved on this device and will sync when you are back online.", label(resource)))
		return
	}
	s.notify(ctx, domain.NotifySuccess, resource, "Success", fmt.Sprintf("%s %s successfully.", capitalize(label(resource)), verb))
}

func checkResource(resource domain.ResourceType, entity domain.Entity) error {
	if !resource.Valid() {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}
	if entity == nil {
		return fmt.Errorf("%w: missing %s payload", apperrors.ErrValidation, label(resource))
	}
	return domain.CheckEntityType(resource, entity)
}

func resultEntity(result portsrepo.MutationResult, resource domain.ResourceType) (domain.Entity, error) {
	if result.Entity == nil || result.Entity.GetID() == "" {
		return nil, errors.New("data layer returned " + label(resource) + " without an id")
	}
	if err := domain.CheckEntityType(resource, result.Entity); err != nil {
		return nil, err
	}
	return result.Entity, nil
}

// label renders a resource for messages, e.g. "shared debt".
func label(resource domain.ResourceType) string {
	return strings.ToLower(strings.ReplaceAll(resource.Singular(), "_", " "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
