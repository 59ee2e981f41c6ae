package rates

import (
	"context"

	"github.com/fxdesk/cnyfix/pkg/models"
)

// Provider supplies daily closing rates for the tracked pairs
type Provider interface {
	// FetchDailyCloses returns up to days of daily closes, ascending
	// by date. Implementations fetch the tracked pairs plus the
	// USDCNY reference.
	FetchDailyCloses(ctx context.Context, days int) (models.RateHistory, error)

	// GetName returns provider name
	GetName() string
}
