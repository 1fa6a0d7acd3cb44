package domain

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/finance_sync/internal/apperrors"
)

// ResourceType names one of the entity collections managed by the store.
type ResourceType string

const (
	Transactions ResourceType = "transactions"
	Accounts     ResourceType = "accounts"
	Goals        ResourceType = "goals"
	Contacts     ResourceType = "contacts"
	Trips        ResourceType = "trips"
	Investments  ResourceType = "investments"
	SharedDebts  ResourceType = "shared-debts"
)

// Entity is implemented by every record held in a resource collection.
type Entity interface {
	GetID() string
	SetID(id string)
	GetAudit() AuditFields
	SetAudit(audit AuditFields)
	Validate() error
	Clone() Entity
}

type resourceSpec struct {
	singular  string
	plural    string
	newEntity func() Entity
}

// registry is the single lookup table keyed by resource type. Adding a resource means adding one entry here.
var registry = map[ResourceType]resourceSpec{
	Transactions: {singular: "TRANSACTION", plural: "TRANSACTIONS", newEntity: func() Entity { return &Transaction{} }},
	Accounts:     {singular: "ACCOUNT", plural: "ACCOUNTS", newEntity: func() Entity { return &Account{} }},
	Goals:        {singular: "GOAL", plural: "GOALS", newEntity: func() Entity { return &Goal{} }},
	Contacts:     {singular: "CONTACT", plural: "CONTACTS", newEntity: func() Entity { return &Contact{} }},
	Trips:        {singular: "TRIP", plural: "TRIPS", newEntity: func() Entity { return &Trip{} }},
	Investments:  {singular: "INVESTMENT", plural: "INVESTMENTS", newEntity: func() Entity { return &Investment{} }},
	SharedDebts:  {singular: "SHARED_DEBT", plural: "SHARED_DEBTS", newEntity: func() Entity { return &SharedDebt{} }},
}

var allResources = []ResourceType{Transactions, Accounts, Goals, Contacts, Trips, Investments, SharedDebts}

// AllResources returns every supported resource type in a stable order.
func AllResources() []ResourceType {
	out := make([]ResourceType, len(allResources))
	copy(out, allResources)
	return out
}

// ParseResourceType validates a raw resource name.
func ParseResourceType(raw string) (ResourceType, error) {
	r := ResourceType(raw)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownResource, raw)
	}
	return r, nil
}

// Valid reports whether r is one of the supported resource types.
func (r ResourceType) Valid() bool {
	_, ok := registry[r]
	return ok
}

// Singular is the upper-case label used in per-entity action names, e.g. ADD_TRANSACTION.
func (r ResourceType) Singular() string {
	return registry[r].singular
}

// Plural is the upper-case label used in collection action names, e.g. SET_TRANSACTIONS.
func (r ResourceType) Plural() string {
	return registry[r].plural
}

// NewEntity returns an empty entity of the concrete type backing r.
func NewEntity(r ResourceType) (Entity, error) {
	entry, ok := registry[r]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownResource, r)
	}
	return entry.newEntity(), nil
}

// DecodeEntity unmarshals a JSON document into the concrete entity type for r.
func DecodeEntity(r ResourceType, data []byte) (Entity, error) {
	e, err := NewEntity(r)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", r, err)
	}
	return e, nil
}

// EntityType reports the resource type of a concrete entity.
func EntityType(e Entity) (ResourceType, bool) {
	switch e.(type) {
	case *Transaction:
		return Transactions, true
	case *Account:
		return Accounts, true
	case *Goal:
		return Goals, true
	case *Contact:
		return Contacts, true
	case *Trip:
		return Trips, true
	case *Investment:
		return Investments, true
	case *SharedDebt:
		return SharedDebts, true
	}
	return "", false
}

// CheckEntityType ensures e is the concrete type registered for r.
func CheckEntityType(r ResourceType, e Entity) error {
	if e == nil {
		return fmt.Errorf("%w: missing %s payload", apperrors.ErrValidation, r)
	}
	got, ok := EntityType(e)
	if !ok || got != r {
		return fmt.Errorf("%w: payload of type %T does not belong to %s", apperrors.ErrValidation, e, r)
	}
	return nil
}
