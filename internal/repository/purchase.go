package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"itch-rewards/internal/model"
)

// PurchaseRepository handles purchase history persistence.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository creates a new PurchaseRepository instance.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Create records a purchase.
func (r *PurchaseRepository) Create(ctx context.Context, rec model.TransactionRecord) error {
	const query = `
		INSERT INTO purchases (product_name, price_cents, tip, created_at)
		VALUES ($1, $2, $3::numeric, NOW())
	`
	if _, err := r.pool.Exec(ctx, query, rec.ProductName, rec.PriceCents, rec.TipAmount.String()); err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// ReplacePurchases swaps the stored history for records inside one
// transaction, keeping their order.
func (r *PurchaseRepository) ReplacePurchases(ctx context.Context, records []model.TransactionRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM purchases`); err != nil {
		return fmt.Errorf("failed to clear purchases: %w", err)
	}

	const insertQuery = `
		INSERT INTO purchases (product_name, price_cents, tip, created_at)
		VALUES ($1, $2, $3::numeric, NOW())
	`
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertQuery, rec.ProductName, rec.PriceCents, rec.TipAmount.String())
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert purchases: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit purchases: %w", err)
	}
	return nil
}

// Purchases returns the full purchase history in insertion order.
func (r *PurchaseRepository) Purchases(ctx context.Context) ([]model.TransactionRecord, error) {
	const query = `
		SELECT product_name, price_cents, tip::text
		FROM purchases
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases: %w", err)
	}
	defer rows.Close()

	var records []model.TransactionRecord
	for rows.Next() {
		var (
			rec model.TransactionRecord
			tip string
		)
		if err := rows.Scan(&rec.ProductName, &rec.PriceCents, &tip); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		rec.TipAmount, err = decimal.NewFromString(tip)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tip %q: %w", tip, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return records, nil
}
