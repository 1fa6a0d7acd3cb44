package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is implemented by SQL-backed repositories whose conditional writes need a
// read and a write inside one transaction.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	// Rollback is a no-op on a transaction that was already committed.
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// ResourceRepositoryWithTx is a ResourceRepository that exposes its transactions.
type ResourceRepositoryWithTx interface {
	ResourceRepository
	TransactionManager
}
