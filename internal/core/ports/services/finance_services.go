package services

import (
	"context"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FinanceSvc groups operations that span more than a single CRUD call.
type FinanceSvc interface {
	// TransferBetweenAccounts moves amount from one account balance to another with two explicit updates.
	TransferBetweenAccounts(ctx context.Context, fromID, toID string, amount decimal.Decimal) (from domain.Account, to domain.Account, err error)

	// RecordDebtPayment lowers a shared debt's current amount, marking it paid at zero.
	RecordDebtPayment(ctx context.Context, debtID string, amount decimal.Decimal) (domain.SharedDebt, error)

	// InvestmentPositions consolidates the investment operations held in the store.
	InvestmentPositions(ctx context.Context) []domain.Position

	// FindContactByEmail matches a contact case-insensitively on email.
	FindContactByEmail(ctx context.Context, email string) (domain.Contact, error)
}
