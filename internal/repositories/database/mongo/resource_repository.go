package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	"github.com/SscSPs/finance_sync/internal/models"
	"github.com/SscSPs/finance_sync/internal/utils/mapping"
	"github.com/SscSPs/finance_sync/internal/utils/pagination"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Document is how a resource is stored: one collection per resource type, the entity's JSON
// document kept as a sub-document so its fields stay queryable.
type Document struct {
	ID        string    `bson:"_id"`
	Payload   bson.M    `bson:"payload"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// ResourceRepository implements the resource repository for MongoDB.
type ResourceRepository struct {
	provider CollectionProvider
}

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository(provider CollectionProvider) *ResourceRepository {
	return &ResourceRepository{provider: provider}
}

var _ portsrepo.ResourceRepository = (*ResourceRepository)(nil)

func (r *ResourceRepository) Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}
	coll := r.provider.Collection(string(resource))

	if query.ID != "" {
		docs, err := coll.FindDocuments(ctx, bson.M{"_id": query.ID}, options.Find().SetLimit(1))
		if err != nil {
			return nil, mapError(err, fmt.Sprintf("failed to find %s %s", resource, query.ID))
		}
		if len(docs) == 0 {
			return nil, fmt.Errorf("%s %s: %w", resource.Singular(), query.ID, apperrors.ErrNotFound)
		}
		e, err := fromDocument(resource, docs[0])
		if err != nil {
			return nil, err
		}
		return []domain.Entity{e}, nil
	}

	page, err := pagination.PageFromParams(query.Params)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	docs, err := coll.FindDocuments(ctx, buildFilter(page), opts)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to query %s", resource))
	}

	out := make([]domain.Entity, 0, len(docs))
	for _, doc := range docs {
		e, err := fromDocument(resource, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *ResourceRepository) Insert(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (domain.Entity, error) {
	if err := domain.CheckEntityType(resource, entity); err != nil {
		return nil, err
	}
	stored := entity.Clone()
	if stored.GetID() == "" {
		stored.SetID(uuid.NewString())
	}
	doc, err := toDocument(resource, stored)
	if err != nil {
		return nil, err
	}
	if _, err := r.provider.Collection(string(resource)).InsertOne(ctx, doc); err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to insert %s %s", resource, doc.ID))
	}
	return stored, nil
}

func (r *ResourceRepository) Replace(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error) {
	if err := domain.CheckEntityType(resource, entity); err != nil {
		return nil, err
	}
	stored := entity.Clone()
	stored.SetID(id)

	if audit := stored.GetAudit(); audit.CreatedAt.IsZero() {
		prev, err := r.Read(ctx, resource, domain.ReadQuery{ID: id})
		if err != nil {
			return nil, err
		}
		audit.CreatedAt = prev[0].GetAudit().CreatedAt
		stored.SetAudit(audit)
	}

	doc, err := toDocument(resource, stored)
	if err != nil {
		return nil, err
	}
	res, err := r.provider.Collection(string(resource)).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to replace %s %s", resource, id))
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%s %s: %w", resource.Singular(), id, apperrors.ErrNotFound)
	}
	return stored, nil
}

func (r *ResourceRepository) Remove(ctx context.Context, resource domain.ResourceType, id string) error {
	if !resource.Valid() {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}
	res, err := r.provider.Collection(string(resource)).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to delete %s %s", resource, id))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", resource.Singular(), id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *ResourceRepository) Ping(ctx context.Context) error {
	if err := r.provider.Ping(ctx); err != nil {
		return mapError(err, "failed to ping MongoDB")
	}
	return nil
}

// buildFilter mirrors the other repositories: case-insensitive equality on top-level payload
// fields and a (createdAt, _id) cursor.
func buildFilter(page pagination.Page) bson.M {
	filter := bson.M{}
	for field, value := range page.Filters {
		filter["payload."+field] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
	}
	if page.After != nil {
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$gt": page.After.CreatedAt}},
			bson.M{"createdAt": page.After.CreatedAt, "_id": bson.M{"$gt": page.After.ID}},
		}
	}
	return filter
}

func toDocument(resource domain.ResourceType, e domain.Entity) (Document, error) {
	rec, err := mapping.ToResourceRecord(resource, e)
	if err != nil {
		return Document{}, err
	}
	var payload bson.M
	if err := bson.UnmarshalExtJSON(rec.Payload, false, &payload); err != nil {
		return Document{}, fmt.Errorf("encode %s %s as bson: %w", resource, rec.ID, err)
	}
	return Document{
		ID:        rec.ID,
		Payload:   payload,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func fromDocument(resource domain.ResourceType, doc Document) (domain.Entity, error) {
	payload, err := bson.MarshalExtJSON(doc.Payload, false, false)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s from bson: %w", resource, doc.ID, err)
	}
	return mapping.ToDomainEntity(models.ResourceRecord{
		ResourceType: string(resource),
		ID:           doc.ID,
		Payload:      payload,
		AuditFields:  models.AuditFields{CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt},
	})
}

func mapError(err error, msg string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", msg, apperrors.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", msg, apperrors.ErrDuplicate)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%s: %w: %v", msg, apperrors.ErrConnectivity, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
