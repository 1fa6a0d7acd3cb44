package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/store"
	"github.com/shopspring/decimal"
)

// FinanceService implements operations built from several orchestrator calls.
type FinanceService struct {
	BaseService
	resources portssvc.ResourceSvcFacade
	store     *store.Store
}

// NewFinanceService creates the finance service.
func NewFinanceService(resources portssvc.ResourceSvcFacade, st *store.Store, options ...ServiceOption) *FinanceService {
	return &FinanceService{
		BaseService: newBaseService(options...),
		resources:   resources,
		store:       st,
	}
}

var _ portssvc.FinanceSvc = (*FinanceService)(nil)

// TransferBetweenAccounts debits from and credits to. If the credit fails the debit is reverted.
func (s *FinanceService) TransferBetweenAccounts(ctx context.Context, fromID, toID string, amount decimal.Decimal) (domain.Account, domain.Account, error) {
	var none domain.Account
	if !amount.IsPositive() {
		return none, none, fmt.Errorf("%w: transfer amount must be positive", apperrors.ErrValidation)
	}
	if fromID == toID {
		return none, none, fmt.Errorf("%w: cannot transfer to the same account", apperrors.ErrValidation)
	}

	from, err := s.account(fromID)
	if err != nil {
		return none, none, err
	}
	to, err := s.account(toID)
	if err != nil {
		return none, none, err
	}

	debited := from
	debited.Balance = from.Balance.Sub(amount)
	debitedEntity, err := s.resources.Update(ctx, domain.Accounts, fromID, &debited)
	if err != nil {
		return none, none, fmt.Errorf("debit account %s: %w", fromID, err)
	}

	credited := to
	credited.Balance = to.Balance.Add(amount)
	creditedEntity, err := s.resources.Update(ctx, domain.Accounts, toID, &credited)
	if err != nil {
		restore := *debitedEntity.(*domain.Account)
		restore.Balance = from.Balance
		if _, revertErr := s.resources.Update(ctx, domain.Accounts, fromID, &restore); revertErr != nil {
			s.LogError(ctx, revertErr, "Failed to revert debit after failed transfer",
				slog.String("from_account", fromID),
				slog.String("amount", amount.String()))
		}
		return none, none, fmt.Errorf("credit account %s: %w", toID, err)
	}

	s.LogInfo(ctx, "Transfer completed",
		slog.String("from_account", fromID),
		slog.String("to_account", toID),
		slog.String("amount", amount.String()))
	s.Track(ctx, "transfer_completed", nil)
	return *debitedEntity.(*domain.Account), *creditedEntity.(*domain.Account), nil
}

// RecordDebtPayment applies a payment to a shared debt.
func (s *FinanceService) RecordDebtPayment(ctx context.Context, debtID string, amount decimal.Decimal) (domain.SharedDebt, error) {
	e, ok := s.store.View().Find(domain.SharedDebts, debtID)
	if !ok {
		return domain.SharedDebt{}, fmt.Errorf("shared debt %s: %w", debtID, apperrors.ErrNotFound)
	}
	debt := *e.Clone().(*domain.SharedDebt)

	next, err := debt.ApplyPayment(amount)
	if err != nil {
		return domain.SharedDebt{}, err
	}
	updated, err := s.resources.Update(ctx, domain.SharedDebts, debtID, &next)
	if err != nil {
		return domain.SharedDebt{}, err
	}

	result := *updated.(*domain.SharedDebt)
	s.LogInfo(ctx, "Debt payment recorded",
		slog.String("debt_id", debtID),
		slog.String("amount", amount.String()),
		slog.String("status", string(result.Status)))
	return result, nil
}

// InvestmentPositions consolidates the investments held in the store.
func (s *FinanceService) InvestmentPositions(_ context.Context) []domain.Position {
	return domain.ConsolidatePositions(store.ListAs[domain.Investment](s.store.View(), domain.Investments))
}

// FindContactByEmail looks a contact up by email among the loaded contacts.
func (s *FinanceService) FindContactByEmail(_ context.Context, email string) (domain.Contact, error) {
	contact, ok := domain.FindContactByEmail(store.ListAs[domain.Contact](s.store.View(), domain.Contacts), email)
	if !ok {
		return domain.Contact{}, fmt.Errorf("contact with email %q: %w", email, apperrors.ErrNotFound)
	}
	return contact, nil
}

func (s *FinanceService) account(id string) (domain.Account, error) {
	e, ok := s.store.View().Find(domain.Accounts, id)
	if !ok {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound)
	}
	return *e.Clone().(*domain.Account), nil
}
