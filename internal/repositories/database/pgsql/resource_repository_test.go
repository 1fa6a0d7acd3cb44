package pgsql

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery(t *testing.T) {
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		page     pagination.Page
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "whole collection",
			page:     pagination.Page{},
			wantSQL:  selectColumns + ` WHERE resource_type = $1 ORDER BY created_at ASC, id ASC`,
			wantArgs: []any{"transactions"},
		},
		{
			name: "filters are ordered by field name",
			page: pagination.Page{Filters: map[string]string{"type": "expense", "accountId": "a1"}},
			wantSQL: selectColumns + ` WHERE resource_type = $1` +
				` AND lower(payload ->> $2) = lower($3)` +
				` AND lower(payload ->> $4) = lower($5)` +
				` ORDER BY created_at ASC, id ASC`,
			wantArgs: []any{"transactions", "accountId", "a1", "type", "expense"},
		},
		{
			name: "cursor and limit",
			page: pagination.Page{Limit: 20, After: &pagination.Cursor{CreatedAt: after, ID: "t9"}},
			wantSQL: selectColumns + ` WHERE resource_type = $1` +
				` AND (created_at, id) > ($2, $3)` +
				` ORDER BY created_at ASC, id ASC LIMIT $4`,
			wantArgs: []any{"transactions", after, "t9", 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildListQuery(domain.Transactions, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildListQuery_RejectsUnsafeField(t *testing.T) {
	_, _, err := buildListQuery(domain.Goals, pagination.Page{Filters: map[string]string{"name'); DROP TABLE resources;--": "x"}})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: apperrors.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: uniqueViolation}, want: apperrors.ErrDuplicate},
		{name: "timeout", err: context.DeadlineExceeded, want: apperrors.ErrConnectivity},
		{name: "wrapped deadline", err: fmt.Errorf("select resources: %w", context.DeadlineExceeded), want: apperrors.ErrConnectivity},
		{name: "canceled", err: context.Canceled, want: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err, "op"), tt.want)
		})
	}

	assert.NoError(t, mapError(nil, "op"))

	var appErr *apperrors.AppError
	require.True(t, errors.As(mapError(&pgconn.PgError{Code: "42P01"}, "op"), &appErr))
	assert.Equal(t, 500, appErr.Code)
}
