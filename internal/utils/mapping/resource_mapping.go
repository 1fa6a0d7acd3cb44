package mapping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/models"
)

// ToResourceRecord converts a domain entity to its storage record.
func ToResourceRecord(resource domain.ResourceType, e domain.Entity) (models.ResourceRecord, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return models.ResourceRecord{}, fmt.Errorf("encode %s %s: %w", resource, e.GetID(), err)
	}
	audit := e.GetAudit()
	return models.ResourceRecord{
		ResourceType: string(resource),
		ID:           e.GetID(),
		Payload:      payload,
		AuditFields:  ToModelAuditFields(audit),
	}, nil
}

// ToDomainEntity converts a storage record back to a domain entity. The record's id and
// timestamps win over whatever the payload carries.
func ToDomainEntity(rec models.ResourceRecord) (domain.Entity, error) {
	resource, err := domain.ParseResourceType(rec.ResourceType)
	if err != nil {
		return nil, err
	}
	e, err := domain.DecodeEntity(resource, rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", resource, rec.ID, err)
	}
	e.SetID(rec.ID)
	e.SetAudit(ToDomainAuditFields(rec.AuditFields))
	return e, nil
}

// ToDomainEntities converts records in order.
func ToDomainEntities(recs []models.ResourceRecord) ([]domain.Entity, error) {
	out := make([]domain.Entity, 0, len(recs))
	for _, rec := range recs {
		e, err := ToDomainEntity(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ToModelAuditFields converts domain audit fields to the storage shape.
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ToDomainAuditFields converts stored audit fields to the domain shape.
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MatchesFilters reports whether every filter equals the payload's top-level field of the same
// name, compared as text. Filters name JSON fields, e.g. {"accountId": "a1", "type": "expense"}.
func MatchesFilters(payload []byte, filters map[string]string) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return false, err
	}
	for field, want := range filters {
		got, ok := doc[field]
		if !ok || !strings.EqualFold(fmt.Sprint(got), want) {
			return false, nil
		}
	}
	return true, nil
}
