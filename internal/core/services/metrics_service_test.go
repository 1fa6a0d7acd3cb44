package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/core/services"
	"github.com/SscSPs/finance_sync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	thisMonth = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	lastMonth = time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC)
)

func TestComputeDashboard_Totals(t *testing.T) {
	txns := []domain.Transaction{
		*newTransaction("t1", domain.TransactionIncome, "500", "salary", thisMonth),
		*newTransaction("t2", domain.TransactionExpense, "200", "Food", thisMonth),
		*newTransaction("t3", domain.TransactionExpense, "-999", "Food", lastMonth),
	}
	accounts := []domain.Account{{ID: "a", Name: "A", Type: domain.AccountChecking, Balance: dec("1000")}}

	m := services.ComputeDashboard(txns, accounts, nil, fixedNow)

	assert.True(t, dec("500").Equal(m.TotalIncome))
	assert.True(t, dec("200").Equal(m.TotalExpenses))
	assert.True(t, dec("300").Equal(m.NetIncome))
	assert.True(t, dec("60").Equal(m.SavingsRate))
	assert.True(t, dec("200").Equal(m.CategoryBreakdown["Food"]))
	assert.True(t, dec("1000").Equal(m.TotalBalance))
	assert.Equal(t, domain.Period{Year: 2024, Month: time.March}, m.Period)
}

func TestComputeDashboard_SignNormalization(t *testing.T) {
	txns := []domain.Transaction{
		*newTransaction("t1", domain.TransactionExpense, "-150", "Dining", thisMonth),
		*newTransaction("t2", domain.TransactionShared, "150", "Dining", thisMonth),
	}

	m := services.ComputeDashboard(txns, nil, nil, fixedNow)

	assert.True(t, dec("300").Equal(m.CategoryBreakdown["Dining"]))
	assert.True(t, dec("300").Equal(m.TotalExpenses))
	assert.Len(t, m.CategoryBreakdown, 1)
}

func TestComputeDashboard_TrendAnalysis(t *testing.T) {
	tests := []struct {
		name         string
		ref          time.Time
		txns         []domain.Transaction
		wantIncome   string
		wantExpenses string
	}{
		{
			name:         "zero baseline yields zero change",
			ref:          fixedNow,
			txns:         []domain.Transaction{*newTransaction("t1", domain.TransactionIncome, "800", "salary", thisMonth)},
			wantIncome:   "0",
			wantExpenses: "0",
		},
		{
			name: "percent change against previous month",
			ref:  fixedNow,
			txns: []domain.Transaction{
				*newTransaction("t1", domain.TransactionIncome, "150", "salary", thisMonth),
				*newTransaction("t2", domain.TransactionIncome, "100", "salary", lastMonth),
				*newTransaction("t3", domain.TransactionExpense, "50", "food", thisMonth),
				*newTransaction("t4", domain.TransactionExpense, "-200", "food", lastMonth),
			},
			wantIncome:   "50",
			wantExpenses: "-75",
		},
		{
			name: "january compares with december of the previous year",
			ref:  time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
			txns: []domain.Transaction{
				*newTransaction("t1", domain.TransactionIncome, "300", "salary", time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)),
				*newTransaction("t2", domain.TransactionIncome, "200", "salary", time.Date(2023, time.December, 5, 0, 0, 0, 0, time.UTC)),
			},
			wantIncome:   "50",
			wantExpenses: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := services.ComputeDashboard(tt.txns, nil, nil, tt.ref)
			assert.True(t, dec(tt.wantIncome).Equal(m.TrendAnalysis.IncomeChange), "income change %s", m.TrendAnalysis.IncomeChange)
			assert.True(t, dec(tt.wantExpenses).Equal(m.TrendAnalysis.ExpenseChange), "expense change %s", m.TrendAnalysis.ExpenseChange)
		})
	}
}

func TestComputeDashboard_ActiveGoalsAcceptBothShapes(t *testing.T) {
	var goals []domain.Goal
	for _, raw := range []string{
		`{"id":"legacy","name":"A","current":50,"target":100}`,
		`{"id":"canonical","name":"B","currentAmount":50,"targetAmount":100}`,
		`{"id":"reached","name":"C","current":100,"target":100}`,
		`{"id":"flagged","name":"D","currentAmount":10,"targetAmount":100,"completed":true}`,
	} {
		var g domain.Goal
		require.NoError(t, json.Unmarshal([]byte(raw), &g))
		goals = append(goals, g)
	}

	m := services.ComputeDashboard(nil, nil, goals, fixedNow)

	ids := make([]string, 0, len(m.ActiveGoals))
	for _, g := range m.ActiveGoals {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"legacy", "canonical"}, ids)
}

func TestComputeDashboard_RecentTransactionsNewestFirst(t *testing.T) {
	var txns []domain.Transaction
	for i := 0; i < 15; i++ {
		txns = append(txns, *newTransaction(fmt.Sprintf("t%02d", i), domain.TransactionExpense, "1", "x", thisMonth.AddDate(0, 0, -i)))
	}

	m := services.ComputeDashboard(txns, nil, nil, fixedNow)

	require.Len(t, m.RecentTransactions, 10)
	assert.Equal(t, "t00", m.RecentTransactions[0].ID)
	assert.Equal(t, "t09", m.RecentTransactions[9].ID)
}

func TestComputeDashboard_ZeroIncomeSavingsRate(t *testing.T) {
	m := services.ComputeDashboard([]domain.Transaction{*newTransaction("t", domain.TransactionExpense, "10", "x", thisMonth)}, nil, nil, fixedNow)

	assert.True(t, m.SavingsRate.IsZero())
	assert.True(t, dec("-10").Equal(m.NetIncome))
}

func TestMetricsService_MemoMatchesRecomputation(t *testing.T) {
	st := store.New(nil)
	svc, err := services.NewMetricsService(st, 4)
	require.NoError(t, err)
	ctx := context.Background()

	st.Dispatch(store.Add(domain.Transactions, newTransaction("t1", domain.TransactionIncome, "100", "salary", thisMonth)))
	first := svc.Dashboard(ctx, fixedNow)
	again := svc.Dashboard(ctx, fixedNow)
	assert.Equal(t, first, again)

	// a mutated result must not leak into the memo
	first.CategoryBreakdown["tampered"] = dec("1")
	assert.NotContains(t, svc.Dashboard(ctx, fixedNow).CategoryBreakdown, "tampered")

	st.Dispatch(store.Add(domain.Transactions, newTransaction("t2", domain.TransactionIncome, "50", "salary", thisMonth)))
	updated := svc.Dashboard(ctx, fixedNow)
	assert.True(t, dec("150").Equal(updated.TotalIncome))

	fresh := services.ComputeDashboard(store.ListAs[domain.Transaction](st.View(), domain.Transactions), nil, nil, fixedNow)
	assert.True(t, fresh.TotalIncome.Equal(updated.TotalIncome))
	assert.True(t, fresh.NetIncome.Equal(updated.NetIncome))
	assert.Len(t, updated.RecentTransactions, len(fresh.RecentTransactions))
}
