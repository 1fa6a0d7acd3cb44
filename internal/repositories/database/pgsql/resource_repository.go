package pgsql

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	"github.com/SscSPs/finance_sync/internal/models"
	"github.com/SscSPs/finance_sync/internal/utils/mapping"
	"github.com/SscSPs/finance_sync/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// filterField restricts filter keys to plain JSON field names.
var filterField = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

const selectColumns = `SELECT resource_type, id, payload, created_at, updated_at FROM resources`

type PgxResourceRepository struct {
	BaseRepository
}

// NewResourceRepository returns a repository storing every resource type in one JSONB table.
func NewResourceRepository(pool *pgxpool.Pool) portsrepo.ResourceRepositoryWithTx {
	return &PgxResourceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ResourceRepositoryWithTx = (*PgxResourceRepository)(nil)

// Read returns one entity by id, or a filtered page of the collection ordered by (created_at, id).
func (r *PgxResourceRepository) Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}

	if query.ID != "" {
		rec, err := scanRecord(r.Pool.QueryRow(ctx, selectColumns+` WHERE resource_type = $1 AND id = $2`, string(resource), query.ID))
		if err != nil {
			return nil, mapError(err, fmt.Sprintf("failed to find %s %s", resource, query.ID))
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
	sql, args, err := buildListQuery(resource, page)
	if err != nil {
		return nil, err
	}

	rows, err := r.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to query %s", resource))
	}
	defer rows.Close()

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ResourceRecord, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to scan %s", resource))
	}
	return mapping.ToDomainEntities(recs)
}

// Insert stores a new entity, assigning an id when it has none.
func (r *PgxResourceRepository) Insert(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (domain.Entity, error) {
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

	query := `
		INSERT INTO resources (resource_type, id, payload, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5);
	`
	_, err = r.Pool.Exec(ctx, query, rec.ResourceType, rec.ID, string(rec.Payload), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to insert %s %s", resource, rec.ID))
	}
	return stored, nil
}

// Replace overwrites the stored entity, keeping its original creation time when the new one has none.
func (r *PgxResourceRepository) Replace(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (domain.Entity, error) {
	if err := domain.CheckEntityType(resource, entity); err != nil {
		return nil, err
	}
	stored := entity.Clone()
	stored.SetID(id)

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	audit := stored.GetAudit()
	var prev models.AuditFields
	err = tx.QueryRow(ctx, `SELECT created_at FROM resources WHERE resource_type = $1 AND id = $2 FOR UPDATE`, string(resource), id).
		Scan(&prev.CreatedAt)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to lock %s %s", resource, id))
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = prev.CreatedAt
		stored.SetAudit(audit)
	}

	rec, err := mapping.ToResourceRecord(resource, stored)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE resources
		SET payload = $3::jsonb, created_at = $4, updated_at = $5
		WHERE resource_type = $1 AND id = $2;
	`
	if _, err := tx.Exec(ctx, query, rec.ResourceType, rec.ID, string(rec.Payload), rec.CreatedAt, rec.UpdatedAt); err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to update %s %s", resource, id))
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return stored, nil
}

// Remove deletes the stored entity.
func (r *PgxResourceRepository) Remove(ctx context.Context, resource domain.ResourceType, id string) error {
	if !resource.Valid() {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}
	tag, err := r.Pool.Exec(ctx, `DELETE FROM resources WHERE resource_type = $1 AND id = $2`, string(resource), id)
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to delete %s %s", resource, id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", resource.Singular(), id, apperrors.ErrNotFound)
	}
	return nil
}

// buildListQuery renders the collection query for a page. Filters compare the payload's top-level
// text value case-insensitively, matching the in-memory repository.
func buildListQuery(resource domain.ResourceType, page pagination.Page) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(selectColumns)
	sb.WriteString(` WHERE resource_type = $1`)
	args := []any{string(resource)}

	fields := make([]string, 0, len(page.Filters))
	for field := range page.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if !filterField.MatchString(field) {
			return "", nil, fmt.Errorf("%w: unsupported filter %q", apperrors.ErrValidation, field)
		}
		args = append(args, field, page.Filters[field])
		fmt.Fprintf(&sb, ` AND lower(payload ->> $%d) = lower($%d)`, len(args)-1, len(args))
	}

	if page.After != nil {
		args = append(args, page.After.CreatedAt, page.After.ID)
		fmt.Fprintf(&sb, ` AND (created_at, id) > ($%d, $%d)`, len(args)-1, len(args))
	}

	sb.WriteString(` ORDER BY created_at ASC, id ASC`)
	if page.Limit > 0 {
		args = append(args, page.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return sb.String(), args, nil
}

func scanRecord(row pgx.Row) (models.ResourceRecord, error) {
	var rec models.ResourceRecord
	err := row.Scan(
		&rec.ResourceType,
		&rec.ID,
		&rec.Payload,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}
