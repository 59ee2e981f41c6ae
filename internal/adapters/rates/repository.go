package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fxdesk/cnyfix/pkg/logger"
	"github.com/fxdesk/cnyfix/pkg/models"
)

// Repository stores fetched daily closes in Postgres so trend analysis
// can run without refetching and feed outages stay auditable
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new rates repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveHistory upserts a fetched close table (idempotent per pair+date).
// The batch is all-or-nothing: lib/pq poisons the transaction after
// any statement error, so the first failure aborts the whole save.
func (r *Repository) SaveHistory(ctx context.Context, history models.RateHistory) error {
	if len(history) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_closes (pair, close_date, close, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pair, close_date) DO UPDATE SET
			close = EXCLUDED.close,
			fetched_at = EXCLUDED.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, day := range history {
		for pair, close := range day.Closes {
			if _, err := stmt.ExecContext(ctx, pair, day.Date, close, time.Now()); err != nil {
				return fmt.Errorf("failed to save %s close for %s: %w",
					pair, day.Date.Format("2006-01-02"), err)
			}
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug("daily closes saved",
		zap.Int("rows", saved),
		zap.Int("days", len(history)),
	)

	return nil
}

// GetCloses returns the most recent stored closes for a pair,
// ascending by date
func (r *Repository) GetCloses(ctx context.Context, pair string, limit int) ([]models.DailyClose, error) {
	query := `
		SELECT pair, close_date, close
		FROM daily_closes
		WHERE pair = $1
		ORDER BY close_date DESC
		LIMIT $2
	`

	closes := []models.DailyClose{}
	if err := r.db.SelectContext(ctx, &closes, query, pair, limit); err != nil {
		return nil, fmt.Errorf("failed to query daily closes: %w", err)
	}

	// Flip to ascending for consumers that walk the series forward
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	return closes, nil
}
