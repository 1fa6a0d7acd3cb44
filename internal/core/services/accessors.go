package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/store"
)

// entityPtr constrains PT to the pointer type that implements domain.Entity for T.
type entityPtr[T any] interface {
	*T
	domain.Entity
}

// ResourceHandle is a typed view of one resource: its collection and flags from the store plus
// the CRUD operations, e.g. "transactions with create/update/delete/refresh".
type ResourceHandle[T any, PT entityPtr[T]] struct {
	resource  domain.ResourceType
	store     *store.Store
	resources portssvc.ResourceSvcFacade
	loader    portssvc.LoaderSvc
}

// NewResourceHandle binds a handle to resource.
func NewResourceHandle[T any, PT entityPtr[T]](resource domain.ResourceType, st *store.Store, resources portssvc.ResourceSvcFacade, loader portssvc.LoaderSvc) *ResourceHandle[T, PT] {
	return &ResourceHandle[T, PT]{resource: resource, store: st, resources: resources, loader: loader}
}

// Resource returns the resource type the handle is bound to.
func (h *ResourceHandle[T, PT]) Resource() domain.ResourceType {
	return h.resource
}

// List returns copies of the entities held in the store.
func (h *ResourceHandle[T, PT]) List() []T {
	return store.ListAs[T](h.store.View(), h.resource)
}

// Get returns a copy of the entity with the given id.
func (h *ResourceHandle[T, PT]) Get(id string) (T, bool) {
	var zero T
	e, ok := h.store.View().Find(h.resource, id)
	if !ok {
		return zero, false
	}
	p, ok := e.Clone().(PT)
	if !ok {
		return zero, false
	}
	return *p, true
}

func (h *ResourceHandle[T, PT]) Loading() bool {
	return h.store.View().ResourceLoading[h.resource]
}

func (h *ResourceHandle[T, PT]) Error() (string, bool) {
	return h.store.View().Error(h.resource)
}

func (h *ResourceHandle[T, PT]) Create(ctx context.Context, item T) (T, error) {
	created, err := h.resources.Create(ctx, h.resource, PT(&item))
	if err != nil {
		var zero T
		return zero, err
	}
	return h.unwrap(created)
}

func (h *ResourceHandle[T, PT]) Update(ctx context.Context, id string, item T) (T, error) {
	updated, err := h.resources.Update(ctx, h.resource, id, PT(&item))
	if err != nil {
		var zero T
		return zero, err
	}
	return h.unwrap(updated)
}

func (h *ResourceHandle[T, PT]) Delete(ctx context.Context, id string) error {
	return h.resources.Delete(ctx, h.resource, id)
}

// Refresh re-reads the resource and replaces its collection.
func (h *ResourceHandle[T, PT]) Refresh(ctx context.Context) error {
	return h.loader.RefreshData(ctx, h.resource)
}

func (h *ResourceHandle[T, PT]) unwrap(e domain.Entity) (T, error) {
	var zero T
	p, ok := e.(PT)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected %T for %s", apperrors.ErrValidation, e, h.resource)
	}
	return *p, nil
}
