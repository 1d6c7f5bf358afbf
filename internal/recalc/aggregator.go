// Package recalc implements the reward recalculation engine: grouping
// purchase history by product, evaluating reward rules, diffing the
// result against the stored reward and committing changes.
package recalc

import (
	"strings"

	"itch-rewards/internal/model"
)

// GroupByProduct groups transaction records by product name.
// Records keep their original relative order inside each group.
func GroupByProduct(records []model.TransactionRecord) map[string][]model.TransactionRecord {
	groups := make(map[string][]model.TransactionRecord)
	for _, rec := range records {
		name := strings.TrimSpace(rec.ProductName)
		groups[name] = append(groups[name], rec)
	}
	return groups
}
