package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period identifies a calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the calendar month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Previous returns the calendar month before p.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Contains reports whether t falls inside the month, evaluated in loc.
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	return local.Year() == p.Year && local.Month() == p.Month
}

// TrendAnalysis holds percentage changes against the previous month.
type TrendAnalysis struct {
	IncomeChange  decimal.Decimal `json:"incomeChange"`
	ExpenseChange decimal.Decimal `json:"expenseChange"`
}

// DashboardMetrics is the derived view computed from the entity collections.
type DashboardMetrics struct {
	Period             Period                     `json:"period"`
	TotalIncome        decimal.Decimal            `json:"totalIncome"`
	TotalExpenses      decimal.Decimal            `json:"totalExpenses"`
	NetIncome          decimal.Decimal            `json:"netIncome"`
	SavingsRate        decimal.Decimal            `json:"savingsRate"`
	CategoryBreakdown  map[string]decimal.Decimal `json:"categoryBreakdown"`
	TrendAnalysis      TrendAnalysis              `json:"trendAnalysis"`
	ActiveGoals        []Goal                     `json:"activeGoals"`
	RecentTransactions []Transaction              `json:"recentTransactions"`
	TotalBalance       decimal.Decimal            `json:"totalBalance"`
}

// SyncStatus is the data layer's view of connectivity and queued work.
type SyncStatus struct {
	IsOnline          bool       `json:"isOnline"`
	PendingOperations int        `json:"pendingOperations"`
	LastSync          *time.Time `json:"lastSync,omitempty"`
}

// ReadQuery narrows a data-layer read. An empty ID lists the collection.
type ReadQuery struct {
	ID     string
	Params map[string]string
}
