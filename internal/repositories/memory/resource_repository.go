package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	"github.com/SscSPs/finance_sync/internal/models"
	"github.com/SscSPs/finance_sync/internal/utils/mapping"
	"github.com/SscSPs/finance_sync/internal/utils/pagination"
	"github.com/google/uuid"
)

// ResourceRepository keeps every resource in process memory, encoded exactly as the database
// repositories store it. Useful for development and tests.
type ResourceRepository struct {
	mu      sync.RWMutex
	records map[domain.ResourceType]map[string]models.ResourceRecord
}

// NewResourceRepository creates an empty in-memory repository.
func NewResourceRepository() *ResourceRepository {
	records := make(map[domain.ResourceType]map[string]models.ResourceRecord)
	for _, r := range domain.AllResources() {
		records[r] = make(map[string]models.ResourceRecord)
	}
	return &ResourceRepository{records: records}
}

var _ portsrepo.ResourceRepository = (*ResourceRepository)(nil)

func (r *ResourceRepository) Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !resource.Valid() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if query.ID != "" {
		rec, ok := r.records[resource][query.ID]
		if !ok {
			return nil, fmt.Errorf("%s %s: %w", resource.Singular(), query.ID, apperrors.ErrNotFound)
		}
		e, err := mapping.ToDomainEntity(rec)
		if err != nil {
			return nil, err
		}
		return []domain.Entity{e}, nil
	}

	page, err := pagination.PageFromParams(query.Params)
	if err != nil {
		return nil, err
	}

	recs := make([]models.ResourceRecord, 0, len(r.records[resource]))
	for _, rec := range r.records[resource] {
		if page.After != nil && !page.After.After(rec.CreatedAt, rec.ID) {
			continue
		}
		ok, err := mapping.MatchesFilters(rec.Payload, page.Filters)
		if err != nil {
			return nil, fmt.Errorf("filter %s %s: %w", resource, rec.ID, err)
		}
		if ok {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	if page.Limit > 0 && len(recs) > page.Limit {
		recs = recs[:page.Limit]
	}
	return mapping.ToDomainEntities(recs)
}

func (r *ResourceRepository) Insert(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.CheckEntityType(resource, entity); err != nil {
		return nil, err
	}

	stored := entity.Clone()
	if stored.GetID() == "" {
		stored.SetID(uuid.NewString())
	}
	rec, err := mapping.ToResourceRecord(resource, stored)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[resource][rec.ID]; exists {
		return nil, fmt.Errorf("%w: %s %s", apperrors.ErrDuplicate, resource.Singular(), rec.ID)
	}
	r.records[resource][rec.ID] = rec
	return stored, nil
}

func (r *ResourceRepository) Replace(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.CheckEntityType(resource, entity); err != nil {
		return nil, err
	}

	stored := entity.Clone()
	stored.SetID(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	prev, exists := r.records[resource][id]
	if !exists {
		return nil, fmt.Errorf("%s %s: %w", resource.Singular(), id, apperrors.ErrNotFound)
	}
	audit := stored.GetAudit()
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = prev.CreatedAt
		stored.SetAudit(audit)
	}
	rec, err := mapping.ToResourceRecord(resource, stored)
	if err != nil {
		return nil, err
	}
	r.records[resource][id] = rec
	return stored, nil
}

func (r *ResourceRepository) Remove(ctx context.Context, resource domain.ResourceType, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !resource.Valid() {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[resource][id]; !exists {
		return fmt.Errorf("%s %s: %w", resource.Singular(), id, apperrors.ErrNotFound)
	}
	delete(r.records[resource], id)
	return nil
}

func (r *ResourceRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
