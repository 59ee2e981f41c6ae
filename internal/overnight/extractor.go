package overnight

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxdesk/cnyfix/internal/adapters/rates"
	"github.com/fxdesk/cnyfix/pkg/models"
)

var (
	// ErrInsufficientHistory means fewer than two daily rows were available
	ErrInsufficientHistory = errors.New("need at least two daily closes")

	// ErrMissingPair means a tracked pair was absent from the close table
	ErrMissingPair = errors.New("tracked pair missing from history")
)

// Extractor turns a multi-day close table into overnight moves. The
// change between the two most recent closes stands in for the true
// overnight move (prior official close to next-session open), which
// would need a live or pre-market quote.
type Extractor struct {
	provider rates.Provider
	days     int
}

// NewExtractor creates an extractor over a rate provider. days is the
// fetch window handed to the provider; weekends and holidays thin the
// rows, so it should comfortably exceed 2.
func NewExtractor(provider rates.Provider, days int) *Extractor {
	if days < 2 {
		days = 2
	}
	return &Extractor{provider: provider, days: days}
}

// Snapshot fetches the close table and extracts overnight moves.
// Any failure here means "no snapshot": callers fall back to the
// neutral-basket assumption instead of aborting the prediction.
func (e *Extractor) Snapshot(ctx context.Context) (*models.MarketSnapshot, error) {
	history, err := e.provider.FetchDailyCloses(ctx, e.days)
	if err != nil {
		return nil, fmt.Errorf("fetch daily closes from %s: %w", e.provider.GetName(), err)
	}
	return Extract(history)
}

// Extract computes per-pair fractional changes from the two most
// recent rows of an ascending close table. The result covers exactly
// the tracked pairs — never a partial set — or is an error.
func Extract(history models.RateHistory) (*models.MarketSnapshot, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrInsufficientHistory, len(history))
	}

	latest := history[len(history)-1]
	prior := history[len(history)-2]

	pairs := make(map[string]models.PairQuote, len(models.TrackedPairs()))
	for _, pair := range models.TrackedPairs() {
		latestClose, ok := latest.Closes[pair]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPair, pair)
		}
		priorClose, ok := prior.Closes[pair]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPair, pair)
		}

		last := models.ToFloat64(latestClose)
		prev := models.ToFloat64(priorClose)
		if prev == 0 {
			return nil, fmt.Errorf("zero prior close for %s", pair)
		}

		pairs[pair] = models.PairQuote{
			Rate: last,
			Chg:  (last - prev) / prev,
		}
	}

	snapshot := &models.MarketSnapshot{
		Pairs:      pairs,
		ObservedAt: latest.Date,
	}

	// USDCNY rides along for display only
	if ref, ok := latest.Closes[models.PairUSDCNY]; ok {
		snapshot.Reference = models.ToFloat64(ref)
	}

	return snapshot, nil
}
