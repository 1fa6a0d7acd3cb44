package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/finance_sync/internal/adapters/datalayer"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/core/services"
	"github.com/SscSPs/finance_sync/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T) (*services.Container, *memory.ResourceRepository) {
	t.Helper()
	repo := memory.NewResourceRepository()
	dl, err := datalayer.NewOfflineDataLayer(repo)
	require.NoError(t, err)
	c, err := services.NewContainer(services.ContainerConfig{DataLayerTimeout: time.Second}, dl, nil,
		services.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c, repo
}

func TestContainer_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContainer(t)

	require.NoError(t, c.Init(ctx))
	assert.Error(t, c.Init(ctx), "second Init without Dispose")
	c.Dispose()
	require.NoError(t, c.Init(ctx), "a disposed container can start again")
	c.Dispose()
}

func TestContainer_IndependentInstances(t *testing.T) {
	ctx := context.Background()
	first, _ := newTestContainer(t)
	second, _ := newTestContainer(t)

	_, err := first.Contacts().Create(ctx, domain.Contact{Name: "Ana"})
	require.NoError(t, err)

	assert.Len(t, first.Contacts().List(), 1)
	assert.Empty(t, second.Contacts().List())
}

func TestContainer_OfflineWritesSyncWhenBackOnline(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestContainer(t)
	require.NoError(t, c.Init(ctx))
	defer c.Dispose()

	c.Sync.SetConnectivity(ctx, false)
	created, err := c.Transactions().Create(ctx, domain.Transaction{
		Amount:   dec("42"),
		Type:     domain.TransactionExpense,
		Category: "Food",
		Date:     thisMonth,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	assert.Len(t, c.Transactions().List(), 1, "offline writes land in the store")
	assert.Equal(t, domain.NotifyInfo, c.Notifications.Recent(1)[0].Level)
	stored, err := repo.Read(ctx, domain.Transactions, domain.ReadQuery{})
	require.NoError(t, err)
	assert.Empty(t, stored)

	status := c.Sync.SetConnectivity(ctx, true)

	assert.True(t, status.IsOnline)
	assert.Equal(t, 0, status.PendingOperations)
	stored, err = repo.Read(ctx, domain.Transactions, domain.ReadQuery{ID: created.ID})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, domain.NotifySuccess, c.Notifications.Recent(1)[0].Level)

	metrics := c.Metrics.Dashboard(ctx, fixedNow)
	assert.True(t, dec("42").Equal(metrics.TotalExpenses))
}

func TestContainer_InitLoadsExistingData(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestContainer(t)
	_, err := repo.Insert(ctx, domain.Goals, &domain.Goal{Name: "Car", TargetAmount: dec("1000")})
	require.NoError(t, err)

	require.NoError(t, c.Init(ctx))
	defer c.Dispose()

	goals := c.Goals().List()
	require.Len(t, goals, 1)
	assert.Equal(t, "Car", goals[0].Name)
	assert.False(t, c.Store.View().Loading)
}

func TestContainer_AccountAndTransactionsFeedDashboard(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContainer(t)

	account, err := c.Accounts().Create(ctx, domain.Account{Name: "A", Type: domain.AccountChecking, Balance: dec("1000")})
	require.NoError(t, err)
	_, err = c.Transactions().Create(ctx, domain.Transaction{
		Amount: dec("500"), Type: domain.TransactionIncome, AccountID: account.ID, Date: thisMonth,
	})
	require.NoError(t, err)
	_, err = c.Transactions().Create(ctx, domain.Transaction{
		Amount: dec("200"), Type: domain.TransactionExpense, Category: "Food", AccountID: account.ID, Date: thisMonth,
	})
	require.NoError(t, err)

	m := c.Metrics.Dashboard(ctx, fixedNow)

	assert.True(t, dec("500").Equal(m.TotalIncome))
	assert.True(t, dec("200").Equal(m.TotalExpenses))
	assert.True(t, dec("300").Equal(m.NetIncome))
	assert.True(t, dec("200").Equal(m.CategoryBreakdown["Food"]))
	assert.True(t, dec("1000").Equal(m.TotalBalance))
}

func TestContainer_RefreshKeepsUnsyncedWrites(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewResourceRepository()
	dl, err := datalayer.NewOfflineDataLayer(repo)
	require.NoError(t, err)
	c, err := services.NewContainer(services.ContainerConfig{DataLayerTimeout: time.Second}, dl, nil,
		services.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	c.Sync.SetConnectivity(ctx, false)
	created, err := c.Transactions().Create(ctx, domain.Transaction{
		Amount: dec("42"), Type: domain.TransactionExpense, Category: "Food", Date: thisMonth,
	})
	require.NoError(t, err)

	// reachable again, queue not yet replayed
	dl.SetOnline(true)
	require.NoError(t, c.Transactions().Refresh(ctx))

	assert.Len(t, c.Transactions().List(), 1)
	assert.Equal(t, 1, dl.GetSyncStatus().PendingOperations)
	assert.True(t, dec("42").Equal(c.Metrics.Dashboard(ctx, fixedNow).TotalExpenses))

	renamed := created
	renamed.Description = "Lunch"
	_, err = c.Resources.UpdateIfUnchanged(ctx, domain.Transactions, created.ID, &renamed, created.UpdatedAt)
	require.NoError(t, err, "the queued version is the current one")
	pending := dl.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "Lunch", pending[0].Entity.(*domain.Transaction).Description)
}
