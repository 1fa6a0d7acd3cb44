package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a transaction for aggregation.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
	TransactionShared  TransactionType = "shared"
)

// OwnerShareKey is the SplitShares key holding the account owner's portion.
const OwnerShareKey = "self"

var hundred = decimal.NewFromInt(100)

// Transaction is a single income, expense or shared expense entry.
type Transaction struct {
	ID                string                     `json:"id"`
	Amount            decimal.Decimal            `json:"amount"`
	Type              TransactionType            `json:"type" binding:"required,oneof=income expense shared"`
	Category          string                     `json:"category"`
	Description       string                     `json:"description,omitempty"`
	AccountID         string                     `json:"accountId"`
	Date              time.Time                  `json:"date"`
	SharedWith        []string                   `json:"sharedWith,omitempty"`
	SharedPercentages map[string]decimal.Decimal `json:"sharedPercentages,omitempty"`
	TripID            string                     `json:"tripId,omitempty"`
	AuditFields
}

func (t *Transaction) GetID() string   { return t.ID }
func (t *Transaction) SetID(id string) { t.ID = id }

// Validate checks the transaction's fields.
func (t *Transaction) Validate() error {
	if err := validateStruct(t); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return validationError("transaction date is required")
	}
	if t.Type == TransactionShared && len(t.SharedWith) == 0 {
		return validationError("shared transactions need at least one participant")
	}
	if len(t.SharedPercentages) > 0 {
		total := decimal.Zero
		for contactID, pct := range t.SharedPercentages {
			if pct.IsNegative() {
				return validationError("shared percentage for %s must not be negative", contactID)
			}
			total = total.Add(pct)
		}
		if total.GreaterThan(hundred) {
			return validationError("shared percentages add up to %s%%, more than 100%%", total.String())
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t *Transaction) Clone() Entity {
	c := *t
	c.SharedWith = cloneStrings(t.SharedWith)
	if t.SharedPercentages != nil {
		c.SharedPercentages = make(map[string]decimal.Decimal, len(t.SharedPercentages))
		for k, v := range t.SharedPercentages {
			c.SharedPercentages[k] = v
		}
	}
	return &c
}

// IsOutflow reports whether the transaction subtracts from the owner's money.
func (t Transaction) IsOutflow() bool {
	return t.Type == TransactionExpense || t.Type == TransactionShared
}

// Magnitude is the non-negative amount regardless of the stored sign.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// SignedAmount applies the sign convention of the transaction type.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.IsOutflow() {
		return t.Magnitude().Neg()
	}
	return t.Magnitude()
}

// SplitShares breaks a shared transaction down by participant. Explicit percentages are used when
// present and the remainder belongs to the owner; otherwise the amount is split equally between the
// owner and every participant.
func (t Transaction) SplitShares() map[string]decimal.Decimal {
	total := t.Magnitude()
	shares := make(map[string]decimal.Decimal, len(t.SharedWith)+1)
	if len(t.SharedWith) == 0 {
		shares[OwnerShareKey] = total
		return shares
	}

	if len(t.SharedPercentages) > 0 {
		assigned := decimal.Zero
		for _, contactID := range t.SharedWith {
			pct, ok := t.SharedPercentages[contactID]
			if !ok {
				continue
			}
			share := total.Mul(pct).Div(hundred).Round(2)
			shares[contactID] = share
			assigned = assigned.Add(share)
		}
		shares[OwnerShareKey] = total.Sub(assigned)
		return shares
	}

	parts := decimal.NewFromInt(int64(len(t.SharedWith) + 1))
	each := total.Div(parts).Round(2)
	assigned := decimal.Zero
	for _, contactID := range t.SharedWith {
		shares[contactID] = each
		assigned = assigned.Add(each)
	}
	shares[OwnerShareKey] = total.Sub(assigned)
	return shares
}
