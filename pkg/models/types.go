package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// PipsPerUnit converts quote units to pips (1 pip = 1/10000 of a unit)
const PipsPerUnit = 10000.0

// Pair symbols tracked by the basket impact model
const (
	PairEURUSD = "EURUSD"
	PairUSDJPY = "USDJPY"
	PairGBPUSD = "GBPUSD"
	PairAUDUSD = "AUDUSD"

	// PairUSDCNY is fetched for reference display only and never
	// enters the impact calculation
	PairUSDCNY = "USDCNY"
)

// TrackedPairs returns the pairs that must be present in a snapshot
func TrackedPairs() []string {
	return []string{PairEURUSD, PairUSDJPY, PairGBPUSD, PairAUDUSD}
}

// PairQuote holds the latest close and the fractional change from the
// prior close for a single pair
type PairQuote struct {
	Rate float64 `json:"rate"`
	Chg  float64 `json:"chg"`
}

// MarketSnapshot holds overnight moves for the tracked pairs.
// A nil *MarketSnapshot means "no data"; a snapshot is never partial.
type MarketSnapshot struct {
	Pairs      map[string]PairQuote `json:"pairs"`
	Reference  float64              `json:"reference"` // USDCNY, display only
	ObservedAt time.Time            `json:"observed_at"`
}

// Quote returns the quote for a pair, false if the pair is not tracked
func (s *MarketSnapshot) Quote(pair string) (PairQuote, bool) {
	q, ok := s.Pairs[pair]
	return q, ok
}

// DailyRates is one day's closing rates keyed by pair symbol
type DailyRates struct {
	Date   time.Time
	Closes map[string]decimal.Decimal
}

// RateHistory is a multi-day close table, ascending by date
type RateHistory []DailyRates

// DailyClose is a single stored closing rate
type DailyClose struct {
	Date  time.Time       `db:"close_date"`
	Pair  string          `db:"pair"`
	Close decimal.Decimal `db:"close"`
}

// FixingInputs are the user-supplied scalars for one prediction
type FixingInputs struct {
	PrevClose float64 // prior official close, 4:30 PM CST
	PrevFix   float64 // prior day's fixing
	CCFPips   float64 // counter-cyclical factor, in pips
}

// Validate checks inputs at the boundary. The calculator itself does
// not re-validate.
func (in FixingInputs) Validate() error {
	if in.PrevClose <= 0 {
		return fmt.Errorf("prev_close must be positive, got %.4f", in.PrevClose)
	}
	if in.PrevFix <= 0 {
		return fmt.Errorf("prev_fix must be positive, got %.4f", in.PrevFix)
	}
	return nil
}

// ComponentBreakdown is the additive decomposition of the predicted move.
// GapPips + BasketPips + CCFPips always equals (PredictedFix - PrevFix) * 10000.
type ComponentBreakdown struct {
	GapPips    float64 `json:"gap_pips"`
	BasketPips float64 `json:"basket_pips"`
	CCFPips    float64 `json:"ccf_pips"`
}

// Total returns the summed move in pips
func (b ComponentBreakdown) Total() float64 {
	return b.GapPips + b.BasketPips + b.CCFPips
}

// Prediction is the model output
type Prediction struct {
	TheoreticalFix float64 `json:"theoretical_fix"` // PredictedFix without the CCF component
	PredictedFix   float64 `json:"predicted_fix"`
}

// VolatilityAlertBand is the deviation between predicted fix and prior
// close above which the presentation layer must warn
const VolatilityAlertBand = 0.0500

// HighVolatility reports whether the prediction deviates from the prior
// close by more than the alert band. Evaluated on the final predicted
// fix, not the theoretical one.
func (p Prediction) HighVolatility(prevClose float64) bool {
	diff := p.PredictedFix - prevClose
	if diff < 0 {
		diff = -diff
	}
	return diff > VolatilityAlertBand
}
