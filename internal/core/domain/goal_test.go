package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoal_IsActiveAcrossFieldShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{name: "legacy shape in progress", payload: `{"name":"Car","current":50,"target":100}`, want: true},
		{name: "canonical shape in progress", payload: `{"name":"Car","currentAmount":50,"targetAmount":100}`, want: true},
		{name: "legacy shape reached", payload: `{"name":"Car","current":100,"target":100}`, want: false},
		{name: "overshoot", payload: `{"name":"Car","currentAmount":"120.50","targetAmount":"100"}`, want: false},
		{name: "explicitly completed", payload: `{"name":"Car","currentAmount":10,"targetAmount":100,"completed":true}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g domain.Goal
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &g))
			assert.Equal(t, tt.want, g.IsActive())
			assert.Equal(t, !tt.want, g.IsCompleted())
		})
	}
}

func TestGoal_CanonicalFieldsWinOverLegacy(t *testing.T) {
	var g domain.Goal
	require.NoError(t, json.Unmarshal([]byte(`{"id":"g1","name":"Trip","current":1,"currentAmount":30,"target":2,"targetAmount":60}`), &g))

	assert.Equal(t, "g1", g.ID)
	assert.True(t, decimal.NewFromInt(30).Equal(g.CurrentAmount))
	assert.True(t, decimal.NewFromInt(60).Equal(g.TargetAmount))
	assert.True(t, decimal.NewFromInt(50).Equal(g.Progress()))

	out, err := json.Marshal(&g)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"currentAmount":"30"`)
	assert.NotContains(t, string(out), `"current":`)
}

func TestGoal_Validate(t *testing.T) {
	g := domain.Goal{Name: "Emergency fund", TargetAmount: decimal.NewFromInt(1000)}
	assert.NoError(t, g.Validate())

	g.TargetAmount = decimal.Zero
	assert.Error(t, g.Validate())

	g = domain.Goal{TargetAmount: decimal.NewFromInt(10)}
	assert.Error(t, g.Validate(), "name is required")
}
