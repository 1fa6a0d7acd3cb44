package store

import (
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// State is the full in-memory view the UI reads from. Collections are keyed by resource type.
type State struct {
	Collections       map[domain.ResourceType][]domain.Entity
	Loading           bool
	ResourceLoading   map[domain.ResourceType]bool
	Errors            map[domain.ResourceType]string
	IsOnline          bool
	PendingOperations int
	LastSync          *time.Time
	// Version increases on every state change; derived views key their caches on it.
	Version uint64
}

// NewState returns the initial state: every collection empty, online, nothing loading.
func NewState() State {
	collections := make(map[domain.ResourceType][]domain.Entity)
	loading := make(map[domain.ResourceType]bool)
	for _, r := range domain.AllResources() {
		collections[r] = []domain.Entity{}
		loading[r] = false
	}
	return State{
		Collections:     collections,
		ResourceLoading: loading,
		Errors:          make(map[domain.ResourceType]string),
		IsOnline:        true,
	}
}

// Collection returns the entities held for r.
func (s State) Collection(r domain.ResourceType) []domain.Entity {
	return s.Collections[r]
}

// Find returns the entity with the given id in r's collection.
func (s State) Find(r domain.ResourceType, id string) (domain.Entity, bool) {
	for _, e := range s.Collections[r] {
		if e.GetID() == id {
			return e, true
		}
	}
	return nil, false
}

// Error returns the recorded error message for r, if any.
func (s State) Error(r domain.ResourceType) (string, bool) {
	msg, ok := s.Errors[r]
	return msg, ok
}

// SyncStatus returns the connectivity part of the state.
func (s State) SyncStatus() domain.SyncStatus {
	status := domain.SyncStatus{IsOnline: s.IsOnline, PendingOperations: s.PendingOperations}
	if s.LastSync != nil {
		ls := *s.LastSync
		status.LastSync = &ls
	}
	return status
}

// DeepCopy clones every map and entity so the copy can be handed out safely.
func (s State) DeepCopy() State {
	out := s
	out.Collections = make(map[domain.ResourceType][]domain.Entity, len(s.Collections))
	for r, items := range s.Collections {
		cloned := make([]domain.Entity, len(items))
		for i, e := range items {
			cloned[i] = e.Clone()
		}
		out.Collections[r] = cloned
	}
	out.ResourceLoading = copyMap(s.ResourceLoading)
	out.Errors = copyMap(s.Errors)
	if s.LastSync != nil {
		ls := *s.LastSync
		out.LastSync = &ls
	}
	return out
}

// ListAs returns r's collection as values of the concrete entity type T, e.g.
// ListAs[domain.Transaction](state, domain.Transactions). Entities of other types are skipped.
func ListAs[T any](s State, r domain.ResourceType) []T {
	items := s.Collections[r]
	out := make([]T, 0, len(items))
	for _, e := range items {
		if p, ok := e.Clone().(any).(*T); ok {
			out = append(out, *p)
		}
	}
	return out
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
