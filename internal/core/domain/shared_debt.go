package domain

import (
	"github.com/shopspring/decimal"
)

// DebtStatus is the lifecycle state of a shared debt.
type DebtStatus string

const (
	DebtActive    DebtStatus = "active"
	DebtPaid      DebtStatus = "paid"
	DebtCancelled DebtStatus = "cancelled"
)

// SharedDebt is money one contact owes another. CurrentAmount only ever decreases, through payments.
type SharedDebt struct {
	ID             string          `json:"id"`
	Creditor       string          `json:"creditor" binding:"required"`
	Debtor         string          `json:"debtor" binding:"required,nefield=Creditor"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	CurrentAmount  decimal.Decimal `json:"currentAmount"`
	Status         DebtStatus      `json:"status" binding:"omitempty,oneof=active paid cancelled"`
	Description    string          `json:"description,omitempty"`
	TransactionID  string          `json:"transactionId,omitempty"`
	AuditFields
}

func (d *SharedDebt) GetID() string   { return d.ID }
func (d *SharedDebt) SetID(id string) { d.ID = id }

// Validate checks the debt's fields.
func (d *SharedDebt) Validate() error {
	if err := validateStruct(d); err != nil {
		return err
	}
	if !d.OriginalAmount.IsPositive() {
		return validationError("original amount must be positive")
	}
	if d.CurrentAmount.IsNegative() || d.CurrentAmount.GreaterThan(d.OriginalAmount) {
		return validationError("current amount must be between 0 and the original amount")
	}
	return nil
}

// Clone returns a copy.
func (d *SharedDebt) Clone() Entity {
	c := *d
	return &c
}

// ApplyPayment returns the debt after paying amount off. A debt that reaches zero becomes paid.
func (d SharedDebt) ApplyPayment(amount decimal.Decimal) (SharedDebt, error) {
	if d.Status != DebtActive && d.Status != "" {
		return d, validationError("cannot pay a %s debt", d.Status)
	}
	if !amount.IsPositive() {
		return d, validationError("payment amount must be positive")
	}
	if amount.GreaterThan(d.CurrentAmount) {
		return d, validationError("payment of %s exceeds the outstanding %s", amount.String(), d.CurrentAmount.String())
	}
	d.CurrentAmount = d.CurrentAmount.Sub(amount)
	d.Status = DebtActive
	if d.CurrentAmount.IsZero() {
		d.Status = DebtPaid
	}
	return d, nil
}
