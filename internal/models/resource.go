package models

import (
	"time"
)

// AuditFields holds the timestamps every stored row carries.
type AuditFields struct {
	CreatedAt time.Time `db:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" bson:"updatedAt"`
}

// ResourceRecord is the storage shape shared by every resource type: the entity's JSON document
// plus the columns needed to key, filter and order it.
type ResourceRecord struct {
	ResourceType string `db:"resource_type" bson:"resourceType"`
	ID           string `db:"id" bson:"id"`
	Payload      []byte `db:"payload" bson:"-"`
	AuditFields
}
