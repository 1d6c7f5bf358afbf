package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"itch-rewards/internal/model"
)

type productsResponse struct {
	Products []model.Product `json:"products"`
}

type rewardsPayload struct {
	Rewards []model.RewardState `json:"rewards"`
}

// Products lists the account's products.
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Rewards lists the rewards of a product.
func (c *Client) Rewards(ctx context.Context, productID string) ([]model.RewardState, error) {
	var resp rewardsPayload
	if err := c.do(ctx, http.MethodGet, rewardsPath(productID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rewards, nil
}

// SaveRewards sends the product's complete reward list. The storefront
// replaces the list as a whole; rewards left out are removed.
func (c *Client) SaveRewards(ctx context.Context, productID string, rewards []model.RewardState) error {
	if rewards == nil {
		rewards = []model.RewardState{}
	}
	if err := c.do(ctx, http.MethodPut, rewardsPath(productID), rewardsPayload{Rewards: rewards}, nil); err != nil {
		return fmt.Errorf("saving rewards: %w", err)
	}
	return nil
}

func rewardsPath(productID string) string {
	return "/api/products/" + url.PathEscape(productID) + "/rewards"
}
