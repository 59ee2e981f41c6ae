package fixing

import (
	"math"
	"testing"
	"time"

	"github.com/fxdesk/cnyfix/internal/basket"
	"github.com/fxdesk/cnyfix/pkg/models"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()

	calc, err := NewCalculator(basket.Default())
	if err != nil {
		t.Fatalf("Failed to create calculator: %v", err)
	}
	return calc
}

func snapshotWithChanges(eurusd, usdjpy, gbpusd, audusd float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Pairs: map[string]models.PairQuote{
			models.PairEURUSD: {Rate: 1.0850, Chg: eurusd},
			models.PairUSDJPY: {Rate: 147.25, Chg: usdjpy},
			models.PairGBPUSD: {Rate: 1.2650, Chg: gbpusd},
			models.PairAUDUSD: {Rate: 0.6550, Chg: audusd},
		},
		Reference:  7.1200,
		ObservedAt: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
	}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCalculator_RejectsMisconfiguredWeights(t *testing.T) {
	weights := basket.Default()
	weights[basket.USD] = 1.0

	if _, err := NewCalculator(weights); err == nil {
		t.Error("Should reject USD weight of 1 (zero impact denominator)")
	}
}

func TestCalculator_GapComponent(t *testing.T) {
	calc := newTestCalculator(t)

	inputs := models.FixingInputs{PrevClose: 6.9850, PrevFix: 6.9820, CCFPips: 0}
	_, breakdown := calc.Compute(inputs, nil)

	want := (inputs.PrevClose - inputs.PrevFix) * models.PipsPerUnit
	if !approxEqual(breakdown.GapPips, want, 1e-9) {
		t.Errorf("Expected gap %.6f pips, got %.6f", want, breakdown.GapPips)
	}
}

func TestCalculator_AbsentMarketMeansNeutralBasket(t *testing.T) {
	calc := newTestCalculator(t)

	inputs := models.FixingInputs{PrevClose: 7.1300, PrevFix: 7.1000, CCFPips: 35}
	_, breakdown := calc.Compute(inputs, nil)

	if breakdown.BasketPips != 0 {
		t.Errorf("Expected zero basket pips with absent market, got %.4f", breakdown.BasketPips)
	}
}

func TestCalculator_ZeroChangesMeanZeroBasket(t *testing.T) {
	calc := newTestCalculator(t)

	inputs := models.FixingInputs{PrevClose: 6.9850, PrevFix: 6.9820, CCFPips: -10}
	_, breakdown := calc.Compute(inputs, snapshotWithChanges(0, 0, 0, 0))

	if breakdown.BasketPips != 0 {
		t.Errorf("Expected zero basket pips with flat overnight moves, got %.4f", breakdown.BasketPips)
	}
}

func TestCalculator_TheoreticalFixIdentity(t *testing.T) {
	calc := newTestCalculator(t)

	cases := []struct {
		name   string
		inputs models.FixingInputs
		market *models.MarketSnapshot
	}{
		{"absent market", models.FixingInputs{PrevClose: 6.9850, PrevFix: 6.9820, CCFPips: -10}, nil},
		{"full basket", models.FixingInputs{PrevClose: 7.0120, PrevFix: 7.0080, CCFPips: 50}, snapshotWithChanges(-0.005, 0.003, -0.002, 0.001)},
		{"zero ccf", models.FixingInputs{PrevClose: 6.9850, PrevFix: 6.9850, CCFPips: 0}, snapshotWithChanges(0.01, -0.01, 0.002, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prediction, breakdown := calc.Compute(tc.inputs, tc.market)

			if !approxEqual(prediction.TheoreticalFix+tc.inputs.CCFPips/models.PipsPerUnit, prediction.PredictedFix, 1e-9) {
				t.Errorf("theoretical_fix + ccf/10000 = %.10f, predicted_fix = %.10f",
					prediction.TheoreticalFix+tc.inputs.CCFPips/models.PipsPerUnit, prediction.PredictedFix)
			}

			// Components always sum to the predicted move
			wantMove := breakdown.Total() / models.PipsPerUnit
			if !approxEqual(prediction.PredictedFix-tc.inputs.PrevFix, wantMove, 1e-9) {
				t.Errorf("predicted move %.10f does not match component sum %.10f",
					prediction.PredictedFix-tc.inputs.PrevFix, wantMove)
			}
		})
	}
}

func TestCalculator_EURWeakeningLiftsFix(t *testing.T) {
	// EUR weakens 1% vs USD: CNY must weaken vs USD to hold the
	// basket, so the basket contribution is positive
	weights := basket.Weights{basket.USD: 0.198, basket.EUR: 0.180}
	calc, err := NewCalculator(weights)
	if err != nil {
		t.Fatalf("Failed to create calculator: %v", err)
	}

	inputs := models.FixingInputs{PrevClose: 7.0000, PrevFix: 7.0000, CCFPips: 0}
	_, breakdown := calc.Compute(inputs, snapshotWithChanges(-0.01, 0, 0, 0))

	want := 0.01 * (0.180 / 0.802) * 7.0000 * models.PipsPerUnit // ≈ +157.1
	if !approxEqual(breakdown.BasketPips, want, 0.05) {
		t.Errorf("Expected basket pips ≈ %.1f, got %.4f", want, breakdown.BasketPips)
	}
	if breakdown.BasketPips <= 0 {
		t.Error("EUR weakening should push the predicted fix up")
	}
}

func TestCalculator_EndToEndAbsentMarket(t *testing.T) {
	calc := newTestCalculator(t)

	inputs := models.FixingInputs{PrevClose: 6.9850, PrevFix: 6.9820, CCFPips: -10}
	prediction, breakdown := calc.Compute(inputs, nil)

	if !approxEqual(breakdown.GapPips, 30.0, 1e-6) {
		t.Errorf("Expected gap 30.0 pips, got %.6f", breakdown.GapPips)
	}
	if breakdown.BasketPips != 0 {
		t.Errorf("Expected zero basket pips, got %.4f", breakdown.BasketPips)
	}
	if !approxEqual(breakdown.Total(), 20.0, 1e-6) {
		t.Errorf("Expected total 20.0 pips, got %.6f", breakdown.Total())
	}
	if !approxEqual(prediction.PredictedFix, 6.9840, 1e-9) {
		t.Errorf("Expected predicted fix 6.9840, got %.6f", prediction.PredictedFix)
	}
	if !approxEqual(prediction.TheoreticalFix, 6.9850, 1e-9) {
		t.Errorf("Expected theoretical fix 6.9850, got %.6f", prediction.TheoreticalFix)
	}
}

func TestCalculator_EndToEndFullBasket(t *testing.T) {
	calc := newTestCalculator(t)

	inputs := models.FixingInputs{PrevClose: 6.9850, PrevFix: 6.9820, CCFPips: 0}
	market := snapshotWithChanges(-0.005, 0.003, -0.002, 0.004)

	prediction, breakdown := calc.Compute(inputs, market)

	w := basket.Default()
	denom := 1 - w.Of(basket.USD)
	wantBasket := 0.0
	wantBasket -= -0.005 * (w.Of(basket.EUR) / denom) * inputs.PrevFix * models.PipsPerUnit
	wantBasket += 0.003 * (w.Of(basket.JPY) / denom) * inputs.PrevFix * models.PipsPerUnit
	wantBasket -= -0.002 * (w.Of(basket.GBP) / denom) * inputs.PrevFix * models.PipsPerUnit

	if !approxEqual(breakdown.BasketPips, wantBasket, 1e-9) {
		t.Errorf("Expected basket %.6f pips, got %.6f", wantBasket, breakdown.BasketPips)
	}

	wantFix := inputs.PrevFix + (breakdown.GapPips+wantBasket)/models.PipsPerUnit
	if !approxEqual(prediction.PredictedFix, wantFix, 0.5e-4) {
		t.Errorf("Expected predicted fix %.4f, got %.4f", wantFix, prediction.PredictedFix)
	}
}

func TestCalculator_AUDNeverEntersBasket(t *testing.T) {
	calc := newTestCalculator(t)

	inputs := models.FixingInputs{PrevClose: 7.0000, PrevFix: 7.0000, CCFPips: 0}

	// Identical snapshots except for the AUD move
	_, flat := calc.Compute(inputs, snapshotWithChanges(0, 0, 0, 0))
	_, audOnly := calc.Compute(inputs, snapshotWithChanges(0, 0, 0, -0.05))

	if flat.BasketPips != audOnly.BasketPips {
		t.Errorf("AUD move changed basket impact: %.4f vs %.4f", flat.BasketPips, audOnly.BasketPips)
	}
}

func TestCalculator_CCFPassedThroughVerbatim(t *testing.T) {
	calc := newTestCalculator(t)

	// Outside the [-100, 100] policy convention: the calculator
	// itself places no clamp, bounds belong to the input boundary
	inputs := models.FixingInputs{PrevClose: 6.9850, PrevFix: 6.9850, CCFPips: 250}
	prediction, breakdown := calc.Compute(inputs, nil)

	if breakdown.CCFPips != 250 {
		t.Errorf("Expected ccf 250 pips verbatim, got %.4f", breakdown.CCFPips)
	}
	if !approxEqual(prediction.PredictedFix, 6.9850+0.0250, 1e-9) {
		t.Errorf("Expected predicted fix 7.0100, got %.6f", prediction.PredictedFix)
	}
}

func TestPrediction_VolatilityFlagUsesPredictedFix(t *testing.T) {
	calc := newTestCalculator(t)

	// Basket pushes the theoretical fix past the band, the CCF pulls
	// the final prediction back inside it: no flag, because the band
	// is evaluated on the final predicted fix
	inputs := models.FixingInputs{PrevClose: 7.0000, PrevFix: 7.0000, CCFPips: -100}
	market := snapshotWithChanges(0, 0.07, 0, 0) // ≈ +549.9 pips of basket impact

	prediction, _ := calc.Compute(inputs, market)

	if math.Abs(prediction.TheoreticalFix-inputs.PrevClose) <= models.VolatilityAlertBand {
		t.Fatalf("Test setup broken: theoretical fix %.4f should breach the band", prediction.TheoreticalFix)
	}
	if prediction.HighVolatility(inputs.PrevClose) {
		t.Errorf("Flag must track predicted fix %.4f, not theoretical %.4f",
			prediction.PredictedFix, prediction.TheoreticalFix)
	}

	// Without the offsetting CCF the prediction itself breaches the band
	inputs.CCFPips = 0
	prediction, _ = calc.Compute(inputs, market)
	if !prediction.HighVolatility(inputs.PrevClose) {
		t.Errorf("Expected volatility flag for predicted fix %.4f vs close %.4f",
			prediction.PredictedFix, inputs.PrevClose)
	}
}
