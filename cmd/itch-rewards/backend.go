package main

import (
	"context"
	"fmt"

	"itch-rewards/internal/config"
	"itch-rewards/internal/pkg/db"
	"itch-rewards/internal/platform"
	"itch-rewards/internal/recalc"
	"itch-rewards/internal/repository"
	"itch-rewards/internal/service"
	"itch-rewards/internal/store"
)

// backend bundles the collaborators the services need.
type backend struct {
	rewards recalc.RewardStore
	history recalc.PurchaseHistory
	catalog service.ProductCatalog
	close   func()
}

// newPlatformClient creates a storefront client and logs in, saving the
// session cookies when cookie storage is enabled.
func newPlatformClient(ctx context.Context, cfg *config.Config) (*platform.Client, error) {
	client, err := platform.New(platform.Options{
		BaseURL:    cfg.Platform.BaseURL,
		Username:   cfg.Platform.Username,
		Password:   cfg.Platform.Password,
		TOTP:       cfg.Platform.TOTP,
		CookiePath: cfg.Platform.CookieFile(),
		Timeout:    cfg.Platform.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// openMirror connects to PostgreSQL and applies the mirror schema.
func openMirror(ctx context.Context, cfg *config.Config) (*db.Pool, error) {
	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool.Pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return pool, nil
}

// openBackend connects to the configured reward store.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPlatform:
		client, err := newPlatformClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{rewards: client, history: client, catalog: client, close: func() {}}, nil

	case config.BackendPostgres:
		pool, err := openMirror(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rewardRepo := repository.NewRewardRepository(pool.Pool)
		return &backend{
			rewards: rewardRepo,
			history: repository.NewPurchaseRepository(pool.Pool),
			catalog: rewardRepo,
			close:   pool.Close,
		}, nil

	case config.BackendSnapshot:
		mem, err := store.LoadSnapshot(cfg.Store.Snapshot)
		if err != nil {
			return nil, err
		}
		return &backend{rewards: mem, history: mem, catalog: mem, close: func() {}}, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
