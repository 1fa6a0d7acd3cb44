package datalayer

import (
	"fmt"
	"slices"
	"sort"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/utils/mapping"
	"github.com/SscSPs/finance_sync/internal/utils/pagination"
)

// overlay replays the queued writes of resource over entities read from the repository. readErr
// is the repository's not-found error for an id read, kept in case nothing queued supplies it.
// List results keep the repository's (createdAt, id) order, cursor and limit.
func (d *OfflineDataLayer) overlay(resource domain.ResourceType, query domain.ReadQuery, entities []domain.Entity, readErr error) ([]domain.Entity, error) {
	ops := d.queuedFor(resource, query.ID)
	if len(ops) == 0 {
		return entities, readErr
	}

	var page pagination.Page
	if query.ID == "" {
		var err error
		if page, err = pagination.PageFromParams(query.Params); err != nil {
			return nil, err
		}
	}

	merged := make([]domain.Entity, 0, len(entities)+len(ops))
	merged = append(merged, entities...)
	for _, op := range ops {
		merged = slices.DeleteFunc(merged, func(e domain.Entity) bool { return e.GetID() == op.EntityID })
		if op.Kind == OpDelete {
			continue
		}
		visible, err := onPage(resource, op.Entity, page)
		if err != nil {
			return nil, err
		}
		if visible {
			merged = append(merged, op.Entity)
		}
	}

	if query.ID != "" {
		if len(merged) == 0 {
			if readErr != nil {
				return nil, readErr
			}
			return nil, fmt.Errorf("%s %s: %w", resource.Singular(), query.ID, apperrors.ErrNotFound)
		}
		return merged, nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i].GetAudit().CreatedAt, merged[j].GetAudit().CreatedAt
		if a.Equal(b) {
			return merged[i].GetID() < merged[j].GetID()
		}
		return a.Before(b)
	})
	if page.Limit > 0 && len(merged) > page.Limit {
		merged = merged[:page.Limit]
	}
	return merged, nil
}

// queuedFor copies the queued writes of resource in replay order, limited to id when set.
func (d *OfflineDataLayer) queuedFor(resource domain.ResourceType, id string) []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ops []Operation
	for _, op := range d.queue {
		if op.Resource != resource || (id != "" && op.EntityID != id) {
			continue
		}
		if op.Entity != nil {
			op.Entity = op.Entity.Clone()
		}
		ops = append(ops, op)
	}
	return ops
}

// onPage reports whether a queued entity belongs in a read of page.
func onPage(resource domain.ResourceType, e domain.Entity, page pagination.Page) (bool, error) {
	if page.After != nil && !page.After.After(e.GetAudit().CreatedAt, e.GetID()) {
		return false, nil
	}
	if len(page.Filters) == 0 {
		return true, nil
	}
	rec, err := mapping.ToResourceRecord(resource, e)
	if err != nil {
		return false, err
	}
	return mapping.MatchesFilters(rec.Payload, page.Filters)
}
