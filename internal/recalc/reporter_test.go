package recalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itch-rewards/internal/model"
)

func TestDiff(t *testing.T) {
	rule := model.RewardRule{ProductName: "Game", ProductID: "1", RewardID: 7}
	current := model.RewardState{ID: 7, Amount: 10, Description: "Have {quantity} left"}

	t.Run("no change", func(t *testing.T) {
		changes := Diff(rule, current, model.CalculationResult{TruncatedAmount: 10, NewDescription: current.Description})
		assert.Empty(t, changes)
	})

	t.Run("quantity only", func(t *testing.T) {
		changes := Diff(rule, current, model.CalculationResult{TruncatedAmount: 12, NewDescription: current.Description})
		require.Len(t, changes, 1)
		assert.Equal(t, model.ChangeQuantity, changes[0].Kind)
		assert.Equal(t, "10", changes[0].Old)
		assert.Equal(t, "12", changes[0].New)
	})

	t.Run("description only", func(t *testing.T) {
		changes := Diff(rule, current, model.CalculationResult{TruncatedAmount: 10, NewDescription: "Have 10 left"})
		require.Len(t, changes, 1)
		assert.Equal(t, model.ChangeDescription, changes[0].Kind)
		assert.Equal(t, "Have {quantity} left", changes[0].Old)
		assert.Equal(t, "Have 10 left", changes[0].New)
	})

	t.Run("both, quantity first", func(t *testing.T) {
		changes := Diff(rule, current, model.CalculationResult{TruncatedAmount: 11, NewDescription: "Have 11 left"})
		require.Len(t, changes, 2)
		assert.Equal(t, model.ChangeQuantity, changes[0].Kind)
		assert.Equal(t, model.ChangeDescription, changes[1].Kind)
		for _, c := range changes {
			assert.Equal(t, "Game", c.ProductName)
			assert.Equal(t, "1", c.ProductID)
			assert.Equal(t, int64(7), c.RewardID)
		}
	})
}

func TestGroupByProduct(t *testing.T) {
	assert.Empty(t, GroupByProduct(nil))

	records := []model.TransactionRecord{
		{ProductName: "A", PriceCents: 1},
		{ProductName: "B", PriceCents: 2},
		{ProductName: "A", PriceCents: 3},
		{ProductName: "A\n", PriceCents: 4},
	}

	groups := GroupByProduct(records)
	require.Len(t, groups, 2)

	var prices []int64
	for _, rec := range groups["A"] {
		prices = append(prices, rec.PriceCents)
	}
	assert.Equal(t, []int64{1, 3, 4}, prices)
	assert.Len(t, groups["B"], 1)
	assert.Empty(t, groups["missing"])
}
