package fixing

import (
	"fmt"

	"github.com/fxdesk/cnyfix/internal/basket"
	"github.com/fxdesk/cnyfix/pkg/models"
)

// Calculator combines the prior fixing, the prior official close, the
// overnight basket moves and a manual policy adjustment into a
// predicted central parity rate and its additive components.
type Calculator struct {
	weights basket.Weights
}

// NewCalculator creates a calculator over a validated weight table.
// A misconfigured table (USD weight at 1 would zero the impact
// denominator) is rejected here so Compute never has to.
func NewCalculator(weights basket.Weights) (*Calculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid basket weights: %w", err)
	}
	return &Calculator{weights: weights}, nil
}

// Compute produces the prediction and its component breakdown. Pure:
// no I/O, no state between calls. A nil market means the data feed
// failed and the basket is assumed neutral (basket_pips = 0).
func (c *Calculator) Compute(in models.FixingInputs, market *models.MarketSnapshot) (models.Prediction, models.ComponentBreakdown) {
	// Market supply/demand signal: the fixing reverts toward
	// yesterday's close. Applied at full weight, not damped.
	gapPips := (in.PrevClose - in.PrevFix) * models.PipsPerUnit

	var basketPips float64
	if market != nil {
		basketPips = c.basketImpact(in.PrevFix, market)
	}

	breakdown := models.ComponentBreakdown{
		GapPips:    gapPips,
		BasketPips: basketPips,
		CCFPips:    in.CCFPips,
	}

	predicted := in.PrevFix + breakdown.Total()/models.PipsPerUnit

	return models.Prediction{
		TheoreticalFix: predicted - in.CCFPips/models.PipsPerUnit,
		PredictedFix:   predicted,
	}, breakdown
}

// basketImpact calculates the theoretical USDCNY move, in pips, needed
// to keep the trade-weighted basket stable. If non-USD currencies
// weaken against USD, USDCNY must rise (CNY weaken) to hold the index.
//
// Only EUR, JPY and GBP drive the sum even though KRW and AUD have
// weights in the table. AUDUSD is fetched and displayed but never
// priced in. Intentional in the current model; do not extend without
// product guidance.
func (c *Calculator) basketImpact(prevFix float64, market *models.MarketSnapshot) float64 {
	denom := 1 - c.weights.Of(basket.USD)

	impactPips := 0.0

	// EUR impact (inverse: EURUSD down -> USDCNY up)
	eur, _ := market.Quote(models.PairEURUSD)
	impactPips -= eur.Chg * (c.weights.Of(basket.EUR) / denom) * prevFix * models.PipsPerUnit

	// JPY impact (direct: USDJPY up -> USDCNY up)
	jpy, _ := market.Quote(models.PairUSDJPY)
	impactPips += jpy.Chg * (c.weights.Of(basket.JPY) / denom) * prevFix * models.PipsPerUnit

	// GBP impact (inverse)
	gbp, _ := market.Quote(models.PairGBPUSD)
	impactPips -= gbp.Chg * (c.weights.Of(basket.GBP) / denom) * prevFix * models.PipsPerUnit

	return impactPips
}
