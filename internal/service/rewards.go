package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"itch-rewards/internal/model"
	"itch-rewards/internal/recalc"
)

// Reward admin errors.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrNothingToUpdate = errors.New("no reward fields to update")
)

// ProductCatalog lists the products of the account.
type ProductCatalog interface {
	Products(ctx context.Context) ([]model.Product, error)
}

// RewardUpdate holds the optional fields of a manual reward update.
// Nil fields are left untouched.
type RewardUpdate struct {
	Amount      *int64
	Title       *string
	Description *string
	Price       *string
	Archived    *bool
}

// Empty reports whether the update sets no field.
func (u RewardUpdate) Empty() bool {
	return u.Amount == nil && u.Title == nil && u.Description == nil && u.Price == nil && u.Archived == nil
}

// RewardService handles listing and manual editing of rewards.
type RewardService struct {
	catalog ProductCatalog
	rewards recalc.RewardStore
}

// NewRewardService creates a new RewardService instance.
func NewRewardService(catalog ProductCatalog, rewards recalc.RewardStore) *RewardService {
	return &RewardService{
		catalog: catalog,
		rewards: rewards,
	}
}

// ListProducts returns all products of the account.
func (s *RewardService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindProduct looks a product up by id or, when id is empty, by name.
func (s *RewardService) FindProduct(ctx context.Context, id, name string) (*model.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range products {
		if id != "" && products[i].ID == id {
			return &products[i], nil
		}
		if id == "" && strings.EqualFold(strings.TrimSpace(products[i].Name), strings.TrimSpace(name)) {
			return &products[i], nil
		}
	}

	if id != "" {
		return nil, fmt.Errorf("%w: id %s", ErrProductNotFound, id)
	}
	return nil, fmt.Errorf("%w: name %q", ErrProductNotFound, name)
}

// ListRewards returns the rewards of a product.
func (s *RewardService) ListRewards(ctx context.Context, productID string) ([]model.RewardState, error) {
	rewards, err := s.rewards.Rewards(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// UpdateReward applies a manual update to one reward and saves the
// product's whole reward list. It returns the saved list.
func (s *RewardService) UpdateReward(ctx context.Context, productID string, rewardID int64, update RewardUpdate) ([]model.RewardState, error) {
	if update.Empty() {
		return nil, ErrNothingToUpdate
	}

	rewards, err := s.ListRewards(ctx, productID)
	if err != nil {
		return nil, err
	}

	idx := recalc.FindReward(rewards, rewardID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d for product %s", recalc.ErrRewardNotFound, rewardID, productID)
	}

	reward := &rewards[idx]
	if update.Amount != nil {
		reward.Amount = *update.Amount
	}
	if update.Title != nil {
		reward.Title = *update.Title
	}
	if update.Description != nil {
		reward.Description = *update.Description
	}
	if update.Price != nil {
		reward.Price = *update.Price
	}
	if update.Archived != nil {
		reward.Archived = *update.Archived
	}

	if err := s.rewards.SaveRewards(ctx, productID, rewards); err != nil {
		return nil, fmt.Errorf("failed to save rewards: %w", err)
	}

	return rewards, nil
}
