// Package model defines the data models for the reward recalculation tool.
package model

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// RewardRule describes how one product's reward tier follows buyer behavior.
// Rules are immutable once loaded from the rule file.
type RewardRule struct {
	ProductName         string          // Key in the rule file; matched against TransactionRecord.ProductName
	ProductID           string          // Storefront product id used for reward store calls
	RewardID            int64           // Reward to recalculate within the product
	TipMultiplier       decimal.Decimal // Weight of the tip/price ratio of each purchase
	PurchaseIncrement   decimal.Decimal // Flat amount added per qualifying purchase
	MinimumAvailable    int64           // Units that must stay available above claimed; 0 disables the floor
	BaselineOffset      decimal.Decimal // Starting value of the sum
	DescriptionTemplate string          // Optional; empty keeps the current description
}

// Active reports whether the rule takes part in recalculation.
// A rule with no multiplier, no increment and no floor is skipped.
func (r RewardRule) Active() bool {
	return r.TipMultiplier.IsPositive() || r.PurchaseIncrement.IsPositive() || r.MinimumAvailable > 0
}

// TransactionRecord is a single row of the account's purchase history.
type TransactionRecord struct {
	ProductName string          `db:"product_name" json:"object_name"`
	PriceCents  int64           `db:"price_cents" json:"product_price"`
	TipAmount   decimal.Decimal `db:"tip" json:"tip"`
}

// RewardState is the local copy of a reward owned by the reward store.
type RewardState struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Amount      int64  `db:"amount" json:"amount"`
	Claimed     int64  `db:"claimed" json:"claimed"`
	Description string `db:"description" json:"description"`
	Price       string `db:"price" json:"price"`
	Archived    bool   `db:"archived" json:"archived"`
}

// Remaining returns the number of units still available to buyers.
func (r RewardState) Remaining() int64 {
	return r.Amount - r.Claimed
}

// CalculationResult is the outcome of evaluating one rule.
type CalculationResult struct {
	RawAmount       decimal.Decimal // Sum before truncation
	TruncatedAmount int64           // floor(RawAmount)
	NewDescription  string
}

// Product is a storefront product that can carry rewards.
type Product struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ChangeKind identifies which field of a reward a Change refers to.
type ChangeKind string

// Change kinds reported by the recalculation.
const (
	ChangeQuantity    ChangeKind = "quantity"
	ChangeDescription ChangeKind = "description"
)

// Change is a single difference between the stored and the computed reward.
type Change struct {
	ProductName string
	ProductID   string
	RewardID    int64
	Kind        ChangeKind
	Old         string
	New         string
}

// QuantityChange builds a quantity Change from integer values.
func QuantityChange(productName, productID string, rewardID, oldAmount, newAmount int64) Change {
	return Change{
		ProductName: productName,
		ProductID:   productID,
		RewardID:    rewardID,
		Kind:        ChangeQuantity,
		Old:         strconv.FormatInt(oldAmount, 10),
		New:         strconv.FormatInt(newAmount, 10),
	}
}

// DescriptionChange builds a description Change.
func DescriptionChange(productName, productID string, rewardID int64, oldDesc, newDesc string) Change {
	return Change{
		ProductName: productName,
		ProductID:   productID,
		RewardID:    rewardID,
		Kind:        ChangeDescription,
		Old:         oldDesc,
		New:         newDesc,
	}
}
