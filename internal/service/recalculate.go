// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"itch-rewards/internal/model"
	"itch-rewards/internal/recalc"
)

// RunOptions holds the per-run options of a recalculation.
type RunOptions struct {
	// Commit saves the computed rewards. The zero value is a dry run.
	Commit bool
}

// RuleResult is the outcome of one evaluated rule.
type RuleResult struct {
	Rule     model.RewardRule
	Previous model.RewardState
	Result   model.CalculationResult
	Changes  []model.Change
}

// RunReport summarizes a recalculation run.
type RunReport struct {
	Results   []RuleResult
	Changes   []model.Change
	Warnings  []string
	Saved     []string // product ids whose reward list was saved
	Committed bool
}

// HasChanges reports whether any reward differs from its computed state.
func (r *RunReport) HasChanges() bool {
	return len(r.Changes) > 0
}

// RecalculateService recomputes reward quantities and descriptions from
// purchase history.
type RecalculateService struct {
	rewards recalc.RewardStore
	history recalc.PurchaseHistory
}

// NewRecalculateService creates a new RecalculateService instance.
func NewRecalculateService(rewards recalc.RewardStore, history recalc.PurchaseHistory) *RecalculateService {
	return &RecalculateService{
		rewards: rewards,
		history: history,
	}
}

// productRules is the list of active rules sharing a product id.
type productRules struct {
	productID string
	rules     []model.RewardRule
}

// rewardKey identifies one reward of one product.
type rewardKey struct {
	productID string
	rewardID  int64
}

// groupRulesByProduct keeps active rules, grouped by product id in the
// order each product first appears. Only the first rule for a given
// reward is kept; later ones are returned as warnings.
func groupRulesByProduct(rules []model.RewardRule) ([]productRules, []string) {
	var (
		groups   []productRules
		warnings []string
	)
	index := make(map[string]int)
	claimed := make(map[rewardKey]string)

	for _, rule := range rules {
		if !rule.Active() {
			continue
		}

		key := rewardKey{productID: rule.ProductID, rewardID: rule.RewardID}
		if first, ok := claimed[key]; ok {
			warnings = append(warnings, fmt.Sprintf(
				"Reward %d for game %s is already updated by %s, skipping...",
				rule.RewardID, rule.ProductName, first))
			log.Warn().
				Str("product", rule.ProductName).
				Str("product_id", rule.ProductID).
				Int64("reward_id", rule.RewardID).
				Str("first_rule", first).
				Msg("Duplicate reward rule, skipping")
			continue
		}
		claimed[key] = rule.ProductName

		i, ok := index[rule.ProductID]
		if !ok {
			i = len(groups)
			index[rule.ProductID] = i
			groups = append(groups, productRules{productID: rule.ProductID})
		}
		groups[i].rules = append(groups[i].rules, rule)
	}

	return groups, warnings
}

// Run evaluates every active rule and, when opts.Commit is set, saves
// each affected product's reward list once.
// Errors from the reward store or purchase history abort the run; a
// rule naming an unknown reward only adds a warning.
func (s *RecalculateService) Run(ctx context.Context, rules []model.RewardRule, opts RunOptions) (*RunReport, error) {
	products, warnings := groupRulesByProduct(rules)
	report := &RunReport{Committed: opts.Commit, Warnings: warnings}
	if len(products) == 0 {
		return report, nil
	}

	records, err := s.history.Purchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	purchases := recalc.GroupByProduct(records)

	log.Debug().
		Int("records", len(records)).
		Int("products", len(products)).
		Bool("commit", opts.Commit).
		Msg("Recalculating rewards")

	persister := recalc.NewPersister(s.rewards, opts.Commit)

	for _, product := range products {
		rewards, err := s.rewards.Rewards(ctx, product.productID)
		if err != nil {
			return nil, fmt.Errorf("failed to list rewards for product %s: %w", product.productID, err)
		}

		applied := 0
		for _, rule := range product.rules {
			idx := recalc.FindReward(rewards, rule.RewardID)
			if idx < 0 {
				msg := fmt.Sprintf("Could not find reward %d for game %s, skipping...", rule.RewardID, rule.ProductName)
				log.Warn().
					Str("product", rule.ProductName).
					Str("product_id", rule.ProductID).
					Int64("reward_id", rule.RewardID).
					Msg("Reward not found, skipping")
				report.Warnings = append(report.Warnings, msg)
				continue
			}

			previous := rewards[idx]
			result := recalc.Calculate(rule, purchases[rule.ProductName], previous)
			changes := recalc.Diff(rule, previous, result)

			if err := persister.Apply(rewards, rule.RewardID, result); err != nil {
				return nil, err
			}
			applied++

			report.Results = append(report.Results, RuleResult{
				Rule:     rule,
				Previous: previous,
				Result:   result,
				Changes:  changes,
			})
			report.Changes = append(report.Changes, changes...)
		}

		if applied == 0 || !persister.Commit() {
			continue
		}
		if err := persister.Flush(ctx, product.productID, rewards); err != nil {
			return nil, err
		}
		report.Saved = append(report.Saved, product.productID)

		log.Info().
			Str("product_id", product.productID).
			Int("rules", applied).
			Msg("Rewards saved")
	}

	return report, nil
}
