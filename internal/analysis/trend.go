package analysis

import (
	"fmt"

	"github.com/cinar/indicator"

	"github.com/fxdesk/cnyfix/pkg/models"
)

// Trend classifies the short-term direction of a pair's daily closes
type Trend string

const (
	TrendUp       Trend = "uptrend"
	TrendDown     Trend = "downtrend"
	TrendSideways Trend = "sideways"
)

const (
	fastPeriod = 5
	slowPeriod = 20
)

// PairTrend summarizes a pair's recent behavior for display alongside
// the fixing prediction. It never feeds the impact formula.
type PairTrend struct {
	Pair      string
	Last      float64
	SMAFast   float64
	SMASlow   float64
	Direction Trend
}

// DetectTrend classifies a pair from its stored daily closes using a
// fast/slow SMA crossover. Needs at least slowPeriod closes.
func DetectTrend(pair string, closes []models.DailyClose) (PairTrend, error) {
	if len(closes) < slowPeriod {
		return PairTrend{}, fmt.Errorf("insufficient closes for %s trend (need %d, got %d)", pair, slowPeriod, len(closes))
	}

	values := make([]float64, len(closes))
	for i, c := range closes {
		values[i] = models.ToFloat64(c.Close)
	}

	fast := indicator.Sma(fastPeriod, values)
	slow := indicator.Sma(slowPeriod, values)

	trend := PairTrend{
		Pair:    pair,
		Last:    values[len(values)-1],
		SMAFast: fast[len(fast)-1],
		SMASlow: slow[len(slow)-1],
	}

	switch {
	case trend.Last > trend.SMAFast && trend.SMAFast > trend.SMASlow:
		trend.Direction = TrendUp
	case trend.Last < trend.SMAFast && trend.SMAFast < trend.SMASlow:
		trend.Direction = TrendDown
	default:
		trend.Direction = TrendSideways
	}

	return trend, nil
}
