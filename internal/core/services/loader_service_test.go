package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/SscSPs/finance_sync/internal/core/services"
	"github.com/SscSPs/finance_sync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleEntity(r domain.ResourceType) domain.Entity {
	e, _ := domain.NewEntity(r)
	e.SetID(string(r) + "-1")
	return e
}

func TestLoadAllData_IsolatesPartialFailure(t *testing.T) {
	ctx := context.Background()
	dl := new(MockDataLayer)
	st := store.New(nil)
	loader := services.NewLoaderService(dl, st)

	for _, r := range domain.AllResources() {
		if r == domain.Investments {
			dl.On("Read", mock.Anything, r, domain.ReadQuery{}).Return(nil, apperrors.ErrForbidden).Once()
			continue
		}
		dl.On("Read", mock.Anything, r, domain.ReadQuery{}).Return([]domain.Entity{sampleEntity(r)}, nil).Once()
	}

	var loadingSeen bool
	st.Subscribe(func(action store.Action, state store.State) {
		if action.Type == store.ActionSet && state.Loading {
			loadingSeen = true
		}
	})

	err := loader.LoadAllData(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.True(t, loadingSeen, "global loading flag must stay set while reads settle")

	state := st.View()
	assert.False(t, state.Loading)
	for _, r := range domain.AllResources() {
		msg, hasErr := state.Error(r)
		if r == domain.Investments {
			assert.True(t, hasErr)
			assert.Equal(t, apperrors.MsgForbidden, msg)
			assert.Empty(t, state.Collection(r))
			continue
		}
		assert.False(t, hasErr, "unexpected error for %s", r)
		assert.Len(t, state.Collection(r), 1, "collection %s", r)
		assert.False(t, state.ResourceLoading[r])
	}
	dl.AssertExpectations(t)
}

func TestRefreshData_SingleResource(t *testing.T) {
	ctx := context.Background()
	dl := new(MockDataLayer)
	st := store.New(nil)
	loader := services.NewLoaderService(dl, st)

	st.Dispatch(store.Set(domain.Goals, []domain.Entity{&domain.Goal{ID: "old"}}))
	st.Dispatch(store.SetError(domain.Goals, "stale"))
	dl.On("Read", mock.Anything, domain.Goals, domain.ReadQuery{}).
		Return([]domain.Entity{&domain.Goal{ID: "g1"}, &domain.Goal{ID: "g2"}}, nil).Once()

	require.NoError(t, loader.RefreshData(ctx, domain.Goals))

	state := st.View()
	assert.Len(t, state.Collection(domain.Goals), 2)
	_, hasErr := state.Error(domain.Goals)
	assert.False(t, hasErr)
	dl.AssertNumberOfCalls(t, "Read", 1)
}

func TestRefreshData_WithoutResourcesLoadsEverything(t *testing.T) {
	ctx := context.Background()
	dl := new(MockDataLayer)
	loader := services.NewLoaderService(dl, store.New(nil))
	dl.On("Read", mock.Anything, mock.Anything, domain.ReadQuery{}).Return([]domain.Entity{}, nil)

	require.NoError(t, loader.RefreshData(ctx))

	dl.AssertNumberOfCalls(t, "Read", len(domain.AllResources()))
}

func TestRefreshData_UnknownResource(t *testing.T) {
	loader := services.NewLoaderService(new(MockDataLayer), store.New(nil))

	err := loader.RefreshData(context.Background(), domain.ResourceType("reminders"))

	assert.ErrorIs(t, err, apperrors.ErrUnknownResource)
}
