package recalc

import (
	"github.com/shopspring/decimal"

	"itch-rewards/internal/model"
)

// sumScale is the number of decimal places the rule sum is rounded to
// before it is floored. Repeating quotients such as 1/3 lose their last
// digit in division and would otherwise floor one unit low.
const sumScale = 10

// TipCents converts a tip in currency units to whole cents, rounding down.
func TipCents(tip decimal.Decimal) int64 {
	return tip.Mul(hundred).Floor().IntPart()
}

// Contribution returns what a single purchase adds to the rule's sum.
// Purchases with a non-positive price contribute nothing.
func Contribution(rule model.RewardRule, rec model.TransactionRecord) decimal.Decimal {
	if rec.PriceCents <= 0 {
		return decimal.Zero
	}

	weighted := decimal.NewFromInt(TipCents(rec.TipAmount)).Mul(rule.TipMultiplier)
	return weighted.Div(decimal.NewFromInt(rec.PriceCents)).Add(rule.PurchaseIncrement)
}

// Calculate evaluates a rule against the product's purchases and its
// current reward. It never mutates its inputs.
func Calculate(rule model.RewardRule, purchases []model.TransactionRecord, current model.RewardState) model.CalculationResult {
	sum := rule.BaselineOffset
	for _, rec := range purchases {
		if rec.PriceCents <= 0 {
			continue
		}
		sum = sum.Add(Contribution(rule, rec))
	}
	sum = sum.Round(sumScale)

	if rule.MinimumAvailable > 0 {
		sum = decimal.Max(sum, decimal.NewFromInt(current.Claimed+rule.MinimumAvailable))
	}

	result := model.CalculationResult{
		RawAmount:       sum,
		TruncatedAmount: sum.Floor().IntPart(),
		NewDescription:  current.Description,
	}

	if rule.DescriptionTemplate != "" {
		result.NewDescription = RenderDescription(rule.DescriptionTemplate, sum)
	}

	return result
}
