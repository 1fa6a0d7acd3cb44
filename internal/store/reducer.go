package store

import (
	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// Reduce applies action to state and returns the next state. It performs no I/O and never panics:
// malformed actions (unknown resource, missing entity) leave the state untouched. The input state is
// never modified; changed maps and slices are copied.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionSet, ActionAdd, ActionUpdate, ActionRemove:
		return reduceCollection(state, action)

	case ActionSetLoading:
		if state.Loading == action.Loading {
			return state
		}
		state.Loading = action.Loading

	case ActionSetResourceLoading:
		if !action.Resource.Valid() {
			return state
		}
		loading := copyMap(state.ResourceLoading)
		loading[action.Resource] = action.Loading
		state.ResourceLoading = loading

	case ActionSetOnlineStatus:
		state.IsOnline = action.Status.IsOnline
		state.PendingOperations = action.Status.PendingOperations
		if action.Status.LastSync != nil {
			ls := *action.Status.LastSync
			state.LastSync = &ls
		}

	case ActionSetError:
		if !action.Resource.Valid() {
			return state
		}
		errs := copyMap(state.Errors)
		errs[action.Resource] = action.Message
		state.Errors = errs

	case ActionClearError:
		if _, ok := state.Errors[action.Resource]; !ok {
			return state
		}
		errs := copyMap(state.Errors)
		delete(errs, action.Resource)
		state.Errors = errs

	default:
		return state
	}

	state.Version++
	return state
}

// reduceCollection is the one generic case shared by all resource types.
func reduceCollection(state State, action Action) State {
	if !action.Resource.Valid() {
		return state
	}
	current := state.Collections[action.Resource]
	var next []domain.Entity

	switch action.Type {
	case ActionSet:
		next = make([]domain.Entity, 0, len(action.Entities))
		for _, e := range action.Entities {
			if e != nil {
				next = append(next, e.Clone())
			}
		}

	case ActionAdd:
		if action.Entity == nil {
			return state
		}
		next = make([]domain.Entity, len(current), len(current)+1)
		copy(next, current)
		next = append(next, action.Entity.Clone())

	case ActionUpdate:
		if action.Entity == nil {
			return state
		}
		idx := indexOf(current, action.Entity.GetID())
		if idx < 0 {
			return state
		}
		next = make([]domain.Entity, len(current))
		copy(next, current)
		next[idx] = action.Entity.Clone()

	case ActionRemove:
		idx := indexOf(current, action.ID)
		if idx < 0 {
			return state
		}
		next = make([]domain.Entity, 0, len(current)-1)
		for _, e := range current {
			if e.GetID() != action.ID {
				next = append(next, e)
			}
		}
	}

	collections := copyMap(state.Collections)
	collections[action.Resource] = next
	state.Collections = collections
	state.Version++
	return state
}

func indexOf(items []domain.Entity, id string) int {
	for i, e := range items {
		if e.GetID() == id {
			return i
		}
	}
	return -1
}
