package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the kind of money container an account represents.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// Account is a bank, card or brokerage account. Balance changes only through explicit updates
// (transfers, payments); it is never recomputed from transactions.
type Account struct {
	ID          string           `json:"id"`
	Name        string           `json:"name" binding:"required"`
	Type        AccountType      `json:"type" binding:"required,oneof=checking savings credit investment"`
	Balance     decimal.Decimal  `json:"balance"`
	Bank        string           `json:"bank,omitempty"`
	CreditLimit *decimal.Decimal `json:"creditLimit,omitempty"`
	AuditFields
}

func (a *Account) GetID() string   { return a.ID }
func (a *Account) SetID(id string) { a.ID = id }

// Validate checks the account's fields.
func (a *Account) Validate() error {
	if err := validateStruct(a); err != nil {
		return err
	}
	if a.CreditLimit != nil && a.CreditLimit.IsNegative() {
		return validationError("credit limit must not be negative")
	}
	return nil
}

// Clone returns a deep copy.
func (a *Account) Clone() Entity {
	c := *a
	if a.CreditLimit != nil {
		limit := *a.CreditLimit
		c.CreditLimit = &limit
	}
	return &c
}

// AvailableCredit is the unused part of a credit account's limit. The balance of a credit account
// is the amount owed. ok is false for accounts without a limit.
func (a Account) AvailableCredit() (available decimal.Decimal, ok bool) {
	if a.Type != AccountCredit || a.CreditLimit == nil {
		return decimal.Zero, false
	}
	available = a.CreditLimit.Sub(a.Balance.Abs())
	if available.IsNegative() {
		return decimal.Zero, true
	}
	return available, true
}
