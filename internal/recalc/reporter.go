package recalc

import (
	"itch-rewards/internal/model"
)

// Diff compares a calculation result with the stored reward.
// The quantity change, if any, comes before the description change.
func Diff(rule model.RewardRule, current model.RewardState, result model.CalculationResult) []model.Change {
	var changes []model.Change

	if result.TruncatedAmount != current.Amount {
		changes = append(changes, model.QuantityChange(
			rule.ProductName, rule.ProductID, current.ID, current.Amount, result.TruncatedAmount,
		))
	}

	if result.NewDescription != current.Description {
		changes = append(changes, model.DescriptionChange(
			rule.ProductName, rule.ProductID, current.ID, current.Description, result.NewDescription,
		))
	}

	return changes
}
