package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"itch-rewards/internal/jobs"
	"itch-rewards/internal/model"
	"itch-rewards/internal/report"
	"itch-rewards/internal/repository"
	"itch-rewards/internal/rules"
	"itch-rewards/internal/service"
)

func runRecalculate(ctx context.Context, args []string) error {
	var common commonFlags
	var opts recalcFlags
	fs := newFlagSet("recalculate")
	common.register(fs)
	opts.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}

	// Rule file problems are fatal before any network call.
	ruleSet, err := rules.LoadFile(opts.path(fs, cfg))
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	svc := service.NewRecalculateService(be.rewards, be.history)
	result, err := svc.Run(ctx, ruleSet, service.RunOptions{Commit: opts.save})
	if err != nil {
		return err
	}
	return report.Run(os.Stdout, result)
}

func runSchedule(ctx context.Context, args []string) error {
	var common commonFlags
	var opts recalcFlags
	var spec string
	fs := newFlagSet("schedule")
	common.register(fs)
	opts.register(fs)
	fs.StringVar(&spec, "cron", "", "Cron expression, overrides schedule.spec")
	if err := parse(fs, args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if fs.Changed("cron") {
		cfg.Schedule.Spec = spec
	}

	rulesPath := opts.path(fs, cfg)
	if _, err := rules.LoadFile(rulesPath); err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	svc := service.NewRecalculateService(be.rewards, be.history)

	scheduler, err := jobs.NewScheduler(cfg.Schedule.Spec, cfg.Schedule.Timezone, func(ctx context.Context) error {
		// Re-read the rule file so edits apply without a restart.
		ruleSet, err := rules.LoadFile(rulesPath)
		if err != nil {
			return err
		}
		result, err := svc.Run(ctx, ruleSet, service.RunOptions{Commit: opts.save})
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			log.Warn().Msg(w)
		}
		for _, c := range result.Changes {
			log.Info().
				Str("product", c.ProductName).
				Int64("reward_id", c.RewardID).
				Str("kind", string(c.Kind)).
				Str("old", c.Old).
				Str("new", c.New).
				Bool("saved", result.Committed).
				Msg("Reward changed")
		}
		return nil
	})
	if err != nil {
		return err
	}

	return scheduler.Start(ctx)
}

func runListGames(ctx context.Context, args []string) error {
	var common commonFlags
	fs := newFlagSet("list-games")
	common.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	products, err := service.NewRewardService(be.catalog, be.rewards).ListProducts(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Games")
	return report.Products(os.Stdout, products)
}

func runList(ctx context.Context, args []string) error {
	var common commonFlags
	var id, name string
	fs := newFlagSet("list")
	common.register(fs)
	fs.StringVar(&id, "id", "", "Game ID")
	fs.StringVar(&name, "name", "", "Game name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if id == "" && name == "" {
		return errors.New("game ID or game name argument is required")
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	svc := service.NewRewardService(be.catalog, be.rewards)
	product, err := svc.FindProduct(ctx, id, name)
	if err != nil {
		return err
	}
	rewards, err := svc.ListRewards(ctx, product.ID)
	if err != nil {
		return err
	}
	return report.Rewards(os.Stdout, *product, rewards)
}

func runUpdate(ctx context.Context, args []string) error {
	var common commonFlags
	var (
		quantity    int64
		title       string
		description string
		price       string
		archived    bool
	)
	fs := newFlagSet("update")
	common.register(fs)
	fs.Int64Var(&quantity, "quantity", 0, "Reward quantity (total, including redeemed)")
	fs.StringVar(&title, "title", "", "Reward title")
	fs.StringVar(&description, "description", "", "Reward description")
	fs.StringVar(&price, "price", "", "Reward price without currency (ex: 15.99)")
	fs.BoolVar(&archived, "archived", false, "Reward archived status")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: update GAME_ID REWARD_ID [options]")
	}

	productID := fs.Arg(0)
	rewardID, err := strconv.ParseInt(fs.Arg(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reward id %q: %w", fs.Arg(1), err)
	}

	var update service.RewardUpdate
	if fs.Changed("quantity") {
		update.Amount = &quantity
	}
	if fs.Changed("title") {
		update.Title = &title
	}
	if fs.Changed("description") {
		update.Description = &description
	}
	if fs.Changed("price") {
		update.Price = &price
	}
	if fs.Changed("archived") {
		update.Archived = &archived
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	svc := service.NewRewardService(be.catalog, be.rewards)
	rewards, err := svc.UpdateReward(ctx, productID, rewardID, update)
	if err != nil {
		return err
	}
	product, err := svc.FindProduct(ctx, productID, "")
	if err != nil {
		product = &model.Product{ID: productID, Name: productID}
	}
	return report.Rewards(os.Stdout, *product, rewards)
}

func runSetup(ctx context.Context, args []string) error {
	var common commonFlags
	var rulesPath string
	fs := newFlagSet("setup")
	common.register(fs)
	fs.StringVar(&rulesPath, "config", rules.DefaultPath, "Path of the reward config file to create")
	if err := parse(fs, args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if cfg.Platform.CookieFile() == "" {
		return errors.New("cookie storage is disabled, enable --cookies to save a session")
	}

	client, err := newPlatformClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("login failed, cookies not saved: %w", err)
	}
	fmt.Printf("Saved cookies to %s\n", cfg.Platform.CookieFile())

	products, err := service.NewRewardService(client, client).ListProducts(ctx)
	if err != nil {
		return err
	}
	if err := rules.WriteExample(rulesPath, products); err != nil {
		if errors.Is(err, rules.ErrConfigExists) {
			log.Warn().Str("path", rulesPath).Msg("Config file already exists, skipping...")
			return nil
		}
		return err
	}
	fmt.Printf("Config file written to %s\n", rulesPath)
	return nil
}

func runSync(ctx context.Context, args []string) error {
	var common commonFlags
	fs := newFlagSet("sync")
	common.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}

	client, err := newPlatformClient(ctx, cfg)
	if err != nil {
		return err
	}
	pool, err := openMirror(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := service.NewMirrorService(
		client, client, client,
		repository.NewRewardRepository(pool.Pool),
		repository.NewPurchaseRepository(pool.Pool),
	)
	result, err := svc.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d games, %d rewards and %d purchases\n", result.Products, result.Rewards, result.Purchases)
	return nil
}
