package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itch-rewards/internal/model"
	"itch-rewards/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newExampleStore seeds one product with two rewards and a single purchase.
func newExampleStore() *store.MemoryStore {
	mem := store.New()
	mem.AddProduct(model.Product{ID: "100", Name: "Space Game"},
		model.RewardState{ID: 7, Title: "Signed copy", Amount: 10, Claimed: 2, Description: "Have {quantity} left"},
		model.RewardState{ID: 8, Title: "Poster", Amount: 4, Claimed: 1, Description: "Posters"},
	)
	mem.AddPurchases(
		model.TransactionRecord{ProductName: "Space Game", PriceCents: 500, TipAmount: dec("1.00")},
		model.TransactionRecord{ProductName: "Other Game", PriceCents: 900, TipAmount: dec("9.00")},
	)
	return mem
}

func exampleRule() model.RewardRule {
	return model.RewardRule{
		ProductName:         "Space Game",
		ProductID:           "100",
		RewardID:            7,
		BaselineOffset:      dec("10"),
		TipMultiplier:       dec("2"),
		PurchaseIncrement:   dec("1"),
		DescriptionTemplate: "Have {quantity} left",
	}
}

func TestRecalculateService_DryRun(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, mem)
	ctx := context.Background()

	report, err := svc.Run(ctx, []model.RewardRule{exampleRule()}, RunOptions{})
	require.NoError(t, err)

	assert.False(t, report.Committed)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.Saved)
	require.Len(t, report.Changes, 2)
	assert.Equal(t, model.ChangeQuantity, report.Changes[0].Kind)
	assert.Equal(t, "10", report.Changes[0].Old)
	assert.Equal(t, "11", report.Changes[0].New)
	assert.Equal(t, model.ChangeDescription, report.Changes[1].Kind)
	assert.Equal(t, "Have 11 left", report.Changes[1].New)

	assert.Equal(t, 0, mem.TotalSaves())
	rewards, err := mem.Rewards(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rewards[0].Amount)
	assert.Equal(t, "Have {quantity} left", rewards[0].Description)
}

func TestRecalculateService_DryRunIsRepeatable(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, mem)
	ctx := context.Background()

	first, err := svc.Run(ctx, []model.RewardRule{exampleRule()}, RunOptions{})
	require.NoError(t, err)
	second, err := svc.Run(ctx, []model.RewardRule{exampleRule()}, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Changes, second.Changes)
	assert.Equal(t, 0, mem.TotalSaves())
}

func TestRecalculateService_Commit(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, mem)
	ctx := context.Background()

	report, err := svc.Run(ctx, []model.RewardRule{exampleRule()}, RunOptions{Commit: true})
	require.NoError(t, err)

	assert.True(t, report.Committed)
	assert.Equal(t, []string{"100"}, report.Saved)
	assert.Equal(t, 1, mem.SaveCount("100"))

	rewards, err := mem.Rewards(ctx, "100")
	require.NoError(t, err)
	require.Len(t, rewards, 2, "the whole reward list is saved")
	assert.Equal(t, int64(11), rewards[0].Amount)
	assert.Equal(t, "Have 11 left", rewards[0].Description)
	assert.Equal(t, int64(2), rewards[0].Claimed)
	assert.Equal(t, int64(4), rewards[1].Amount, "untouched reward keeps its values")

	// A second run finds nothing left to change.
	again, err := svc.Run(ctx, []model.RewardRule{exampleRule()}, RunOptions{Commit: true})
	require.NoError(t, err)
	assert.Empty(t, again.Changes)
}

func TestRecalculateService_MultipleRulesOneSave(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, mem)
	ctx := context.Background()

	poster := model.RewardRule{
		ProductName:      "Space Game Posters",
		ProductID:        "100",
		RewardID:         8,
		MinimumAvailable: 5,
	}

	report, err := svc.Run(ctx, []model.RewardRule{exampleRule(), poster}, RunOptions{Commit: true})
	require.NoError(t, err)

	assert.Equal(t, 1, mem.SaveCount("100"))
	assert.Len(t, report.Results, 2)

	rewards, err := mem.Rewards(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(11), rewards[0].Amount)
	assert.Equal(t, int64(6), rewards[1].Amount, "claimed 1 + minimum 5")
}

func TestRecalculateService_SkipsInactiveRules(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, mem)

	inactive := exampleRule()
	inactive.TipMultiplier = decimal.Zero
	inactive.PurchaseIncrement = decimal.Zero
	inactive.MinimumAvailable = 0

	report, err := svc.Run(context.Background(), []model.RewardRule{inactive}, RunOptions{Commit: true})
	require.NoError(t, err)

	assert.Empty(t, report.Results)
	assert.Empty(t, report.Changes)
	assert.Equal(t, 0, mem.TotalSaves())
}

func TestRecalculateService_MissingRewardWarns(t *testing.T) {
	mem := newExampleStore()
	mem.AddProduct(model.Product{ID: "200", Name: "Other Game"},
		model.RewardState{ID: 1, Amount: 0, Claimed: 0},
	)
	svc := NewRecalculateService(mem, mem)

	missing := exampleRule()
	missing.RewardID = 999

	other := model.RewardRule{
		ProductName:       "Other Game",
		ProductID:         "200",
		RewardID:          1,
		PurchaseIncrement: dec("1"),
	}

	report, err := svc.Run(context.Background(), []model.RewardRule{missing, other}, RunOptions{Commit: true})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "999")
	assert.Equal(t, 0, mem.SaveCount("100"))
	assert.Equal(t, 1, mem.SaveCount("200"))
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "1", report.Changes[0].New)
}

func TestRecalculateService_NameMismatchMeansNoPurchases(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, mem)

	rule := exampleRule()
	rule.ProductName = "Space Game (renamed)"

	report, err := svc.Run(context.Background(), []model.RewardRule{rule}, RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, int64(10), report.Results[0].Result.TruncatedAmount)
}

type failingHistory struct{}

func (failingHistory) Purchases(context.Context) ([]model.TransactionRecord, error) {
	return nil, errors.New("connection reset")
}

func TestRecalculateService_HistoryErrorIsFatal(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, failingHistory{})

	_, err := svc.Run(context.Background(), []model.RewardRule{exampleRule()}, RunOptions{})
	assert.Error(t, err)
}

func TestRecalculateService_UnknownProductIsFatal(t *testing.T) {
	mem := newExampleStore()
	svc := NewRecalculateService(mem, mem)

	rule := exampleRule()
	rule.ProductID = "404"

	_, err := svc.Run(context.Background(), []model.RewardRule{rule}, RunOptions{})
	assert.Error(t, err)
}

func TestGroupRulesByProduct(t *testing.T) {
	rules := []model.RewardRule{
		{ProductID: "b", RewardID: 1, PurchaseIncrement: dec("1")},
		{ProductID: "a", RewardID: 2, PurchaseIncrement: dec("1")},
		{ProductID: "b", RewardID: 3, MinimumAvailable: 1},
		{ProductID: "c", RewardID: 4},
	}

	groups, warnings := groupRulesByProduct(rules)
	assert.Empty(t, warnings)
	require.Len(t, groups, 2)
	assert.Equal(t, "b", groups[0].productID)
	assert.Len(t, groups[0].rules, 2)
	assert.Equal(t, "a", groups[1].productID)
}

func TestGroupRulesByProduct_DuplicateReward(t *testing.T) {
	rules := []model.RewardRule{
		{ProductName: "Space Game", ProductID: "100", RewardID: 7, PurchaseIncrement: dec("1")},
		{ProductName: "Space Game Deluxe", ProductID: "100", RewardID: 7, TipMultiplier: dec("2")},
		{ProductName: "Space Game", ProductID: "100", RewardID: 8, MinimumAvailable: 1},
	}

	groups, warnings := groupRulesByProduct(rules)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].rules, 2)
	assert.Equal(t, int64(7), groups[0].rules[0].RewardID)
	assert.Equal(t, "Space Game", groups[0].rules[0].ProductName)
	assert.Equal(t, int64(8), groups[0].rules[1].RewardID)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Space Game Deluxe")
}

// TestRecalculateService_DuplicateRuleSameInBothModes checks that a dry run
// reports exactly what a committed run would save.
func TestRecalculateService_DuplicateRuleSameInBothModes(t *testing.T) {
	second := exampleRule()
	second.ProductName = "Space Game Deluxe"
	second.BaselineOffset = dec("40")
	rules := []model.RewardRule{exampleRule(), second}

	dry, err := NewRecalculateService(newExampleStore(), newExampleStore()).Run(context.Background(), rules, RunOptions{})
	require.NoError(t, err)

	mem := newExampleStore()
	committed, err := NewRecalculateService(mem, mem).Run(context.Background(), rules, RunOptions{Commit: true})
	require.NoError(t, err)

	assert.Equal(t, dry.Changes, committed.Changes)
	assert.Equal(t, dry.Warnings, committed.Warnings)
	require.Len(t, committed.Warnings, 1)

	rewards, err := mem.Rewards(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, int64(11), rewards[0].Amount)
}
