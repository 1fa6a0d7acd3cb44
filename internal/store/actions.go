package store

import (
	"github.com/SscSPs/finance_sync/internal/core/domain"
)

// ActionType tags an Action. Per-resource verbs are combined with the resource label to form the
// conventional action name, e.g. ADD_TRANSACTION or SET_SHARED_DEBTS.
type ActionType string

const (
	ActionSet                ActionType = "SET"
	ActionAdd                ActionType = "ADD"
	ActionUpdate             ActionType = "UPDATE"
	ActionRemove             ActionType = "REMOVE"
	ActionSetLoading         ActionType = "SET_LOADING"
	ActionSetResourceLoading ActionType = "SET_RESOURCE_LOADING"
	ActionSetOnlineStatus    ActionType = "SET_ONLINE_STATUS"
	ActionSetError           ActionType = "SET_ERROR"
	ActionClearError         ActionType = "CLEAR_ERROR"
)

// Action is a state transition request. Only the fields relevant to Type are read.
type Action struct {
	Type     ActionType
	Resource domain.ResourceType
	Entities []domain.Entity
	Entity   domain.Entity
	ID       string
	Loading  bool
	Status   domain.SyncStatus
	Message  string
}

// Name renders the action the way it appears in logs.
func (a Action) Name() string {
	switch a.Type {
	case ActionSet:
		return string(a.Type) + "_" + a.Resource.Plural()
	case ActionAdd, ActionUpdate, ActionRemove:
		return string(a.Type) + "_" + a.Resource.Singular()
	}
	return string(a.Type)
}

// Set replaces the whole collection of r.
func Set(r domain.ResourceType, entities []domain.Entity) Action {
	return Action{Type: ActionSet, Resource: r, Entities: entities}
}

// Add appends one entity that already carries its id.
func Add(r domain.ResourceType, e domain.Entity) Action {
	return Action{Type: ActionAdd, Resource: r, Entity: e}
}

// Update replaces the entity with the same id.
func Update(r domain.ResourceType, e domain.Entity) Action {
	return Action{Type: ActionUpdate, Resource: r, Entity: e}
}

// Remove filters out the entity with the given id.
func Remove(r domain.ResourceType, id string) Action {
	return Action{Type: ActionRemove, Resource: r, ID: id}
}

// SetLoading toggles the global loading flag.
func SetLoading(loading bool) Action {
	return Action{Type: ActionSetLoading, Loading: loading}
}

// SetResourceLoading toggles the loading flag of one resource.
func SetResourceLoading(r domain.ResourceType, loading bool) Action {
	return Action{Type: ActionSetResourceLoading, Resource: r, Loading: loading}
}

// SetOnlineStatus records connectivity, pending operation count and last sync time.
func SetOnlineStatus(status domain.SyncStatus) Action {
	return Action{Type: ActionSetOnlineStatus, Status: status}
}

// SetError records a user-facing error message for r.
func SetError(r domain.ResourceType, message string) Action {
	return Action{Type: ActionSetError, Resource: r, Message: message}
}

// ClearError removes r's error message.
func ClearError(r domain.ResourceType) Action {
	return Action{Type: ActionClearError, Resource: r}
}
