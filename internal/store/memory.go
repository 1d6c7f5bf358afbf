// Package store provides an in-memory reward store and purchase history.
// It backs offline runs from a snapshot file and the service tests.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"itch-rewards/internal/model"
)

// Snapshot is the on-disk layout of an offline account.
type Snapshot struct {
	Products  []SnapshotProduct  `yaml:"products"`
	Purchases []SnapshotPurchase `yaml:"purchases"`
}

// SnapshotProduct is a product and its rewards.
type SnapshotProduct struct {
	ID      string              `yaml:"id"`
	Name    string              `yaml:"name"`
	Rewards []model.RewardState `yaml:"rewards"`
}

// SnapshotPurchase is one purchase history row.
type SnapshotPurchase struct {
	ObjectName   string `yaml:"object_name"`
	ProductPrice int64  `yaml:"product_price"`
	Tip          string `yaml:"tip"`
}

// MemoryStore holds products, rewards and purchase history in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	products  []model.Product
	rewards   map[string][]model.RewardState
	purchases []model.TransactionRecord
	saves     map[string]int
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		rewards: make(map[string][]model.RewardState),
		saves:   make(map[string]int),
	}
}

// LoadSnapshot reads a YAML snapshot file into a new MemoryStore.
func LoadSnapshot(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	s := New()
	for _, p := range snap.Products {
		s.AddProduct(model.Product{ID: p.ID, Name: p.Name}, p.Rewards...)
	}
	for _, row := range snap.Purchases {
		tip := decimal.Zero
		if row.Tip != "" {
			tip, err = decimal.NewFromString(row.Tip)
			if err != nil {
				return nil, fmt.Errorf("parsing snapshot %s: tip %q: %w", path, row.Tip, err)
			}
		}
		s.AddPurchases(model.TransactionRecord{
			ProductName: row.ObjectName,
			PriceCents:  row.ProductPrice,
			TipAmount:   tip,
		})
	}
	return s, nil
}

// AddProduct registers a product with its rewards.
func (s *MemoryStore) AddProduct(p model.Product, rewards ...model.RewardState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
	s.rewards[p.ID] = append([]model.RewardState(nil), rewards...)
}

// AddPurchases appends rows to the purchase history.
func (s *MemoryStore) AddPurchases(records ...model.TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append(s.purchases, records...)
}

// CreateProduct adds a product without rewards, or renames an existing one.
func (s *MemoryStore) CreateProduct(_ context.Context, p model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i].Name = p.Name
			return nil
		}
	}
	s.products = append(s.products, p)
	s.rewards[p.ID] = nil
	return nil
}

// ReplacePurchases swaps the purchase history for records.
func (s *MemoryStore) ReplacePurchases(_ context.Context, records []model.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append([]model.TransactionRecord(nil), records...)
	return nil
}

// Products returns all products in insertion order.
func (s *MemoryStore) Products(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Product(nil), s.products...), nil
}

// Rewards returns a copy of the product's reward list.
func (s *MemoryStore) Rewards(_ context.Context, productID string) ([]model.RewardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rewards, ok := s.rewards[productID]
	if !ok {
		return nil, fmt.Errorf("product %s not found", productID)
	}
	return append([]model.RewardState(nil), rewards...), nil
}

// SaveRewards replaces the product's reward list.
func (s *MemoryStore) SaveRewards(_ context.Context, productID string, rewards []model.RewardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rewards[productID]; !ok {
		return fmt.Errorf("product %s not found", productID)
	}
	s.rewards[productID] = append([]model.RewardState(nil), rewards...)
	s.saves[productID]++
	return nil
}

// Purchases returns a copy of the purchase history.
func (s *MemoryStore) Purchases(_ context.Context) ([]model.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TransactionRecord(nil), s.purchases...), nil
}

// SaveCount returns how many times the product's rewards were saved.
func (s *MemoryStore) SaveCount(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[productID]
}

// TotalSaves returns the number of save calls across all products.
func (s *MemoryStore) TotalSaves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.saves {
		total += n
	}
	return total
}
