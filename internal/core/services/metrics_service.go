package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	portssvc "github.com/SscSPs/finance_sync/internal/core/ports/services"
	"github.com/SscSPs/finance_sync/internal/store"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
)

const (
	recentTransactionsLimit = 10
	defaultMetricsCacheSize = 32
	uncategorized           = "uncategorized"
)

var hundred = decimal.NewFromInt(100)

type metricsKey struct {
	period   domain.Period
	location string
	version  uint64
}

// MetricsService serves dashboard metrics. Results are memoized per (month, store version), so a
// cached value is always identical to a fresh computation.
type MetricsService struct {
	BaseService
	store *store.Store
	cache *lru.Cache[metricsKey, domain.DashboardMetrics]
}

// NewMetricsService creates the aggregator with an LRU memo of cacheSize entries.
func NewMetricsService(st *store.Store, cacheSize int, options ...ServiceOption) (*MetricsService, error) {
	if cacheSize <= 0 {
		cacheSize = defaultMetricsCacheSize
	}
	cache, err := lru.New[metricsKey, domain.DashboardMetrics](cacheSize)
	if err != nil {
		return nil, err
	}
	return &MetricsService{
		BaseService: newBaseService(options...),
		store:       st,
		cache:       cache,
	}, nil
}

var _ portssvc.MetricsSvc = (*MetricsService)(nil)

func (s *MetricsService) Dashboard(ctx context.Context, ref time.Time) domain.DashboardMetrics {
	state := s.store.View()
	key := metricsKey{period: domain.PeriodOf(ref), location: ref.Location().String(), version: state.Version}

	if cached, ok := s.cache.Get(key); ok {
		return copyMetrics(cached)
	}

	metrics := ComputeDashboard(
		store.ListAs[domain.Transaction](state, domain.Transactions),
		store.ListAs[domain.Account](state, domain.Accounts),
		store.ListAs[domain.Goal](state, domain.Goals),
		ref,
	)
	s.cache.Add(key, metrics)
	s.LogDebug(ctx, "Dashboard metrics computed",
		slog.Int("year", key.period.Year),
		slog.Int("month", int(key.period.Month)),
		slog.Uint64("version", key.version))
	return copyMetrics(metrics)
}

// ComputeDashboard derives the dashboard for the calendar month containing ref, evaluated in
// ref's location. Expense and shared amounts count as magnitudes whatever their stored sign.
func ComputeDashboard(transactions []domain.Transaction, accounts []domain.Account, goals []domain.Goal, ref time.Time) domain.DashboardMetrics {
	loc := ref.Location()
	current := domain.PeriodOf(ref)
	previous := current.Previous()

	income, expenses := decimal.Zero, decimal.Zero
	prevIncome, prevExpenses := decimal.Zero, decimal.Zero
	breakdown := make(map[string]decimal.Decimal)

	for _, t := range transactions {
		switch {
		case current.Contains(t.Date, loc):
			if t.IsOutflow() {
				expenses = expenses.Add(t.Magnitude())
				category := t.Category
				if category == "" {
					category = uncategorized
				}
				breakdown[category] = breakdown[category].Add(t.Magnitude())
			} else if t.Type == domain.TransactionIncome {
				income = income.Add(t.Magnitude())
			}
		case previous.Contains(t.Date, loc):
			if t.IsOutflow() {
				prevExpenses = prevExpenses.Add(t.Magnitude())
			} else if t.Type == domain.TransactionIncome {
				prevIncome = prevIncome.Add(t.Magnitude())
			}
		}
	}

	net := income.Sub(expenses)
	savingsRate := decimal.Zero
	if !income.IsZero() {
		savingsRate = net.Div(income).Mul(hundred).Round(2)
	}

	activeGoals := make([]domain.Goal, 0)
	for _, g := range goals {
		if g.IsActive() {
			activeGoals = append(activeGoals, g)
		}
	}

	return domain.DashboardMetrics{
		Period:            current,
		TotalIncome:       income,
		TotalExpenses:     expenses,
		NetIncome:         net,
		SavingsRate:       savingsRate,
		CategoryBreakdown: breakdown,
		TrendAnalysis: domain.TrendAnalysis{
			IncomeChange:  percentChange(income, prevIncome),
			ExpenseChange: percentChange(expenses, prevExpenses),
		},
		ActiveGoals:        activeGoals,
		RecentTransactions: recentTransactions(transactions, recentTransactionsLimit),
		TotalBalance:       domain.TotalBalance(accounts),
	}
}

// percentChange is zero when there is no baseline to compare against.
func percentChange(current, baseline decimal.Decimal) decimal.Decimal {
	if baseline.IsZero() {
		return decimal.Zero
	}
	return current.Sub(baseline).Div(baseline).Mul(hundred).Round(2)
}

func recentTransactions(transactions []domain.Transaction, limit int) []domain.Transaction {
	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func copyMetrics(m domain.DashboardMetrics) domain.DashboardMetrics {
	out := m
	out.CategoryBreakdown = make(map[string]decimal.Decimal, len(m.CategoryBreakdown))
	for k, v := range m.CategoryBreakdown {
		out.CategoryBreakdown[k] = v
	}
	out.ActiveGoals = make([]domain.Goal, len(m.ActiveGoals))
	for i := range m.ActiveGoals {
		out.ActiveGoals[i] = *m.ActiveGoals[i].Clone().(*domain.Goal)
	}
	out.RecentTransactions = make([]domain.Transaction, len(m.RecentTransactions))
	for i := range m.RecentTransactions {
		out.RecentTransactions[i] = *m.RecentTransactions[i].Clone().(*domain.Transaction)
	}
	return out
}
