package recalc

import (
	"context"
	"errors"
	"fmt"

	"itch-rewards/internal/model"
)

// ErrRewardNotFound is returned when a rule names a reward the product does not have.
var ErrRewardNotFound = errors.New("reward not found")

// RewardStore lists and saves the rewards of a product.
// SaveRewards replaces the product's whole reward list in one call.
type RewardStore interface {
	Rewards(ctx context.Context, productID string) ([]model.RewardState, error)
	SaveRewards(ctx context.Context, productID string, rewards []model.RewardState) error
}

// PurchaseHistory yields the account's raw transaction records.
type PurchaseHistory interface {
	Purchases(ctx context.Context) ([]model.TransactionRecord, error)
}

// FindReward returns the index of the reward with the given id, or -1.
func FindReward(rewards []model.RewardState, rewardID int64) int {
	for i := range rewards {
		if rewards[i].ID == rewardID {
			return i
		}
	}
	return -1
}

// Persister applies calculation results to a product's reward list and
// saves the list. When commit is disabled it neither mutates nor saves.
type Persister struct {
	store  RewardStore
	commit bool
}

// NewPersister creates a Persister writing to store when commit is true.
func NewPersister(store RewardStore, commit bool) *Persister {
	return &Persister{store: store, commit: commit}
}

// Commit reports whether the persister writes changes.
func (p *Persister) Commit() bool {
	return p.commit
}

// Apply sets the amount and description of the reward with rewardID in
// the local list.
func (p *Persister) Apply(rewards []model.RewardState, rewardID int64, result model.CalculationResult) error {
	idx := FindReward(rewards, rewardID)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrRewardNotFound, rewardID)
	}
	if !p.commit {
		return nil
	}

	rewards[idx].Amount = result.TruncatedAmount
	rewards[idx].Description = result.NewDescription
	return nil
}

// Flush saves the product's complete reward list in a single call.
func (p *Persister) Flush(ctx context.Context, productID string, rewards []model.RewardState) error {
	if !p.commit {
		return nil
	}
	if err := p.store.SaveRewards(ctx, productID, rewards); err != nil {
		return fmt.Errorf("failed to save rewards for product %s: %w", productID, err)
	}
	return nil
}
