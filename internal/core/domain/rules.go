package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalize fills fields that are derived rather than entered, before an entity is written.
func Normalize(e Entity, now time.Time) {
	switch v := e.(type) {
	case *Trip:
		v.Status = v.StatusAt(now)
	case *Investment:
		v.Ticker = strings.ToUpper(strings.TrimSpace(v.Ticker))
		if v.TotalValue.IsZero() {
			v.TotalValue = v.Quantity.Mul(v.Price)
		}
	case *SharedDebt:
		if v.Status == "" {
			v.Status = DebtActive
		}
		if v.CurrentAmount.IsZero() && v.Status == DebtActive && v.CreatedAt.IsZero() {
			v.CurrentAmount = v.OriginalAmount
		}
	case *Contact:
		v.Email = strings.TrimSpace(v.Email)
	}
}

// CheckTransition enforces invariants that span an entity's stored and incoming versions.
func CheckTransition(prev, next Entity) error {
	p, ok := prev.(*SharedDebt)
	if !ok {
		return nil
	}
	n, ok := next.(*SharedDebt)
	if !ok {
		return nil
	}
	if n.CurrentAmount.GreaterThan(p.CurrentAmount) {
		return validationError("shared debt amount cannot increase from %s to %s", p.CurrentAmount.String(), n.CurrentAmount.String())
	}
	return nil
}

// FindContactByEmail returns the first contact whose email matches.
func FindContactByEmail(contacts []Contact, email string) (Contact, bool) {
	for _, c := range contacts {
		if c.MatchesEmail(email) {
			return c, true
		}
	}
	return Contact{}, false
}

// TotalBalance sums the balances of all accounts.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}
