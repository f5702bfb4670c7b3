package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	inventorybalancer "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer"
	postgresadapter "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/adapters/postgres"
	youtubeadapter "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/adapters/youtube"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/application/workers"
	"github.com/ileka2468/JuicerScribe/internal/platform/config"
	"github.com/ileka2468/JuicerScribe/internal/platform/db"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type BalancerApp struct {
	postgres     *db.Postgres
	balancer     *workers.InventoryBalancer
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildBalancer() (*BalancerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "balancer")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	searcher, err := youtubeadapter.NewSearcher(context.Background(), cfg.YouTubeAPIKey, cfg.SearchTimeout, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := inventorybalancer.NewModule(inventorybalancer.Dependencies{
		Finance: repo,
		Videos:  repo,
		Search:  searcher,
		Clock:   postgresadapter.SystemClock{},
		IDGen:   postgresadapter.UUIDGenerator{},
		Config: workers.Config{
			Query:               cfg.ChannelName,
			WorkingCapitalFloor: cfg.WorkingCapitalFloor,
			TargetRatio:         cfg.TargetCapitalRatio,
			DeadBand:            cfg.ValueDeadBand,
			MaxVideosPerBatch:   cfg.MaxVideosPerBatch,
			PageSize:            cfg.SearchPageSize,
			FetchCooldown:       cfg.FetchCooldown,
			LookbackDays:        cfg.LookbackDays,
			DateWindowDays:      cfg.DateWindowDays,
		},
		Logger: logger,
	})

	return &BalancerApp{
		postgres:     pg,
		balancer:     module.Balancer,
		pollInterval: cfg.PollInterval,
		logger:       logger,
	}, nil
}

// Run ticks the reconciliation loop until the context is cancelled. Cycle
// failures are logged and never stop the loop; the next tick always runs.
func (a *BalancerApp) Run(ctx context.Context) error {
	interval := a.pollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("balancer app started",
		"event", "bootstrap_balancer_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
	)

	for {
		if _, err := a.balancer.RunOnce(ctx); err != nil {
			a.logger.Error("balancer cycle failed",
				"event", "bootstrap_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			a.logger.Info("balancer app stopping",
				"event", "bootstrap_balancer_stopping",
				"module", "internal/app/bootstrap",
				"layer", "platform",
			)
			return nil
		case <-ticker.C:
		}
	}
}

func (a *BalancerApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}
