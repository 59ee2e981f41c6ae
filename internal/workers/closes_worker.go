package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fxdesk/cnyfix/internal/adapters/rates"
	"github.com/fxdesk/cnyfix/pkg/logger"
)

// ClosesWorker periodically fetches daily closes from the rate
// provider and upserts them into Postgres for trend analysis
type ClosesWorker struct {
	provider rates.Provider
	repo     *rates.Repository
	days     int
}

// NewClosesWorker creates new closes worker. days controls how far
// back each poll refetches, which also backfills gaps after downtime.
func NewClosesWorker(provider rates.Provider, repo *rates.Repository, days int) *ClosesWorker {
	return &ClosesWorker{
		provider: provider,
		repo:     repo,
		days:     days,
	}
}

// Name returns worker name
func (cw *ClosesWorker) Name() string {
	return "closes_poller"
}

// Run executes one iteration - fetches the close table and stores it.
// Called periodically by pkg/worker.PeriodicWorker.
func (cw *ClosesWorker) Run(ctx context.Context) error {
	startTime := time.Now()

	history, err := cw.provider.FetchDailyCloses(ctx, cw.days)
	if err != nil {
		logger.Warn("failed to fetch daily closes",
			zap.String("provider", cw.provider.GetName()),
			zap.Error(err),
		)
		return nil
	}

	if err := cw.repo.SaveHistory(ctx, history); err != nil {
		logger.Warn("failed to store daily closes", zap.Error(err))
		return nil
	}

	logger.Info("daily closes refreshed",
		zap.Int("days", len(history)),
		zap.Duration("latency", time.Since(startTime)),
	)

	return nil
}
