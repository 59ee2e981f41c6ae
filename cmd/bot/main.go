package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fxdesk/cnyfix/internal/adapters/cache"
	"github.com/fxdesk/cnyfix/internal/adapters/config"
	"github.com/fxdesk/cnyfix/internal/adapters/database"
	"github.com/fxdesk/cnyfix/internal/adapters/rates"
	"github.com/fxdesk/cnyfix/internal/adapters/telegram"
	"github.com/fxdesk/cnyfix/internal/bot"
	"github.com/fxdesk/cnyfix/internal/fixing"
	"github.com/fxdesk/cnyfix/internal/overnight"
	"github.com/fxdesk/cnyfix/internal/workers"
	"github.com/fxdesk/cnyfix/pkg/logger"
	"github.com/fxdesk/cnyfix/pkg/worker"
)

const migrationsPath = "migrations"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("USD/CNY fixing predictor starting...")

	provider := rates.NewFrankfurterProvider(cfg.Provider.BaseURL, cfg.Provider.Timeout)
	extractor := overnight.NewExtractor(provider, cfg.Provider.HistoryDays)

	calc, err := fixing.NewCalculator(cfg.BasketWeights())
	if err != nil {
		return err
	}

	var snapshotCache bot.SnapshotCache
	if cfg.Cache.Enabled {
		c, err := cache.New(&cfg.Cache)
		if err != nil {
			return fmt.Errorf("failed to initialize snapshot cache: %w", err)
		}
		defer c.Close()
		snapshotCache = c
	}

	var closesStore bot.ClosesStore
	var closesWorker *worker.PeriodicWorker
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(migrationsPath); err != nil {
			return err
		}

		repo := rates.NewRepository(db.DB())
		closesStore = repo

		closesWorker = worker.NewPeriodicWorker(
			workers.NewClosesWorker(provider, repo, cfg.Provider.HistoryDays),
			cfg.Worker.ClosesPollInterval,
		)
		closesWorker.Start(ctx)
	}

	manager := bot.NewManager(calc, extractor, snapshotCache, closesStore, provider.GetName())

	tgBot, err := telegram.NewBot(&cfg.Telegram, manager)
	if err != nil {
		return err
	}

	go func() {
		if err := tgBot.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("telegram bot error", zap.Error(err))
		}
	}()

	logger.Info("fixing predictor ready")

	<-ctx.Done()
	logger.Info("shutting down gracefully...")

	if closesWorker != nil {
		closesWorker.Stop(10 * time.Second)
	}

	return nil
}
