// Package repository provides PostgreSQL implementations of the reward
// store, the purchase history and the product catalog.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"itch-rewards/internal/model"
)

// Common errors for repository operations.
var (
	ErrProductNotFound = errors.New("product not found")
)

// RewardRepository handles product and reward persistence.
type RewardRepository struct {
	pool *pgxpool.Pool
}

// NewRewardRepository creates a new RewardRepository instance.
func NewRewardRepository(pool *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{pool: pool}
}

// CreateProduct inserts or renames a product.
func (r *RewardRepository) CreateProduct(ctx context.Context, p model.Product) error {
	const query = `
		INSERT INTO products (id, name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`
	if _, err := r.pool.Exec(ctx, query, p.ID, p.Name); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Products returns all products ordered by creation.
func (r *RewardRepository) Products(ctx context.Context) ([]model.Product, error) {
	const query = `
		SELECT id, name
		FROM products
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Rewards returns the product's rewards in their stored order.
// Returns ErrProductNotFound if the product does not exist.
func (r *RewardRepository) Rewards(ctx context.Context, productID string) ([]model.RewardState, error) {
	if err := r.ensureProduct(ctx, r.pool, productID); err != nil {
		return nil, err
	}

	const query = `
		SELECT id, title, amount, claimed, description, price, archived
		FROM rewards
		WHERE product_id = $1
		ORDER BY position, id
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.RewardState
	for rows.Next() {
		var rw model.RewardState
		err := rows.Scan(
			&rw.ID,
			&rw.Title,
			&rw.Amount,
			&rw.Claimed,
			&rw.Description,
			&rw.Price,
			&rw.Archived,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, rw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rewards: %w", err)
	}

	return rewards, nil
}

// SaveRewards replaces the product's reward list inside one transaction.
// Rewards missing from the list are removed. The claimed count of an
// existing reward is never lowered.
func (r *RewardRepository) SaveRewards(ctx context.Context, productID string, rewards []model.RewardState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.ensureProduct(ctx, tx, productID); err != nil {
		return err
	}

	ids := make([]int64, 0, len(rewards))
	for _, rw := range rewards {
		ids = append(ids, rw.ID)
	}

	const deleteQuery = `
		DELETE FROM rewards
		WHERE product_id = $1 AND NOT (id = ANY($2))
	`
	if _, err := tx.Exec(ctx, deleteQuery, productID, ids); err != nil {
		return fmt.Errorf("failed to prune rewards: %w", err)
	}

	const upsertQuery = `
		INSERT INTO rewards (id, product_id, position, title, amount, claimed, description, price, archived, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (product_id, id) DO UPDATE SET
			position = EXCLUDED.position,
			title = EXCLUDED.title,
			amount = EXCLUDED.amount,
			claimed = GREATEST(rewards.claimed, EXCLUDED.claimed),
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			archived = EXCLUDED.archived,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for i, rw := range rewards {
		batch.Queue(upsertQuery, rw.ID, productID, i, rw.Title, rw.Amount, rw.Claimed, rw.Description, rw.Price, rw.Archived)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save rewards: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rewards: %w", err)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *RewardRepository) ensureProduct(ctx context.Context, q querier, productID string) error {
	const query = `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	if err := q.QueryRow(ctx, query, productID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return nil
}
