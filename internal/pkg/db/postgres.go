// Package db provides PostgreSQL connection management for the reward mirror.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"itch-rewards/internal/config"
)

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool and verifies it with a ping.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// A recalculation run is sequential; a small pool is enough.
	poolConfig.MaxConns = int32(cfg.PoolSize)
	if poolConfig.MaxConns < 1 {
		poolConfig.MaxConns = 1
	}
	poolConfig.MinConns = 1

	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	} else {
		poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second
	}

	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	} else {
		poolConfig.MaxConnLifetime = time.Hour
	}

	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	} else {
		poolConfig.MaxConnIdleTime = 30 * time.Minute
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("Connecting to PostgreSQL")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to PostgreSQL")

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
		log.Debug().Msg("PostgreSQL connection pool closed")
	}
}

// migrations create the mirror schema. Each statement is idempotent.
var migrations = []struct {
	name  string
	query string
}{
	{
		name: "products table",
		query: `
			CREATE TABLE IF NOT EXISTS products (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
		`,
	},
	{
		name: "rewards table",
		query: `
			CREATE TABLE IF NOT EXISTS rewards (
				id BIGINT NOT NULL,
				product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				position INT NOT NULL DEFAULT 0,
				title TEXT NOT NULL DEFAULT '',
				amount BIGINT NOT NULL DEFAULT 0,
				claimed BIGINT NOT NULL DEFAULT 0,
				description TEXT NOT NULL DEFAULT '',
				price TEXT NOT NULL DEFAULT '',
				archived BOOLEAN NOT NULL DEFAULT FALSE,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (product_id, id)
			);
		`,
	},
	{
		name: "purchases table",
		query: `
			CREATE TABLE IF NOT EXISTS purchases (
				id BIGSERIAL PRIMARY KEY,
				product_name TEXT NOT NULL,
				price_cents BIGINT NOT NULL,
				tip NUMERIC(12, 2) NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_purchases_product ON purchases(product_name, id);
		`,
	},
}

// Migrate applies the mirror schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.query); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Debug().Int("step", i+1).Str("name", m.name).Msg("Migration applied")
	}
	return nil
}
