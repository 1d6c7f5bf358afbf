package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"itch-rewards/internal/model"
	"itch-rewards/internal/recalc"
)

// ProductWriter stores products and their reward lists.
type ProductWriter interface {
	CreateProduct(ctx context.Context, p model.Product) error
	SaveRewards(ctx context.Context, productID string, rewards []model.RewardState) error
}

// PurchaseWriter replaces the stored purchase history.
type PurchaseWriter interface {
	ReplacePurchases(ctx context.Context, records []model.TransactionRecord) error
}

// MirrorReport counts what a sync copied.
type MirrorReport struct {
	Products  int
	Rewards   int
	Purchases int
}

// MirrorService copies products, rewards and purchase history from the
// storefront into a local store.
type MirrorService struct {
	catalog   ProductCatalog
	rewards   recalc.RewardStore
	history   recalc.PurchaseHistory
	products  ProductWriter
	purchases PurchaseWriter
}

// NewMirrorService creates a new MirrorService instance.
func NewMirrorService(
	catalog ProductCatalog,
	rewards recalc.RewardStore,
	history recalc.PurchaseHistory,
	products ProductWriter,
	purchases PurchaseWriter,
) *MirrorService {
	return &MirrorService{
		catalog:   catalog,
		rewards:   rewards,
		history:   history,
		products:  products,
		purchases: purchases,
	}
}

// Sync copies every product with its rewards, then the full purchase
// history. It stops at the first error.
func (s *MirrorService) Sync(ctx context.Context) (*MirrorReport, error) {
	report := &MirrorReport{}

	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	for _, p := range products {
		rewards, err := s.rewards.Rewards(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list rewards for product %s: %w", p.ID, err)
		}
		if err := s.products.CreateProduct(ctx, p); err != nil {
			return nil, err
		}
		if err := s.products.SaveRewards(ctx, p.ID, rewards); err != nil {
			return nil, err
		}
		report.Products++
		report.Rewards += len(rewards)

		log.Debug().
			Str("product_id", p.ID).
			Int("rewards", len(rewards)).
			Msg("Product mirrored")
	}

	records, err := s.history.Purchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	if err := s.purchases.ReplacePurchases(ctx, records); err != nil {
		return nil, err
	}
	report.Purchases = len(records)

	log.Info().
		Int("products", report.Products).
		Int("rewards", report.Rewards).
		Int("purchases", report.Purchases).
		Msg("Mirror synced")

	return report, nil
}
