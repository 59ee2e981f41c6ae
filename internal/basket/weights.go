package basket

import "fmt"

// Currency codes used in the reference basket
const (
	USD = "USD"
	EUR = "EUR"
	JPY = "JPY"
	KRW = "KRW"
	GBP = "GBP"
	AUD = "AUD"
)

// Weights maps a currency code to its proportional weight in the
// reference basket. Immutable for the process lifetime once validated.
type Weights map[string]float64

// Default returns the approximate CFETS proxy weights (2025/2026).
// Real weights are proprietary and change annually; others are bundled
// or ignored for this simplified proxy.
//
// Note: KRW and AUD carry weights here but the overnight impact model
// only back-prices EUR, JPY and GBP against USD. The basket nominally
// includes them, so the weights stay in the table for a future
// extension of the formula.
func Default() Weights {
	return Weights{
		USD: 0.198, // base
		EUR: 0.180,
		JPY: 0.090,
		KRW: 0.080,
		GBP: 0.030,
		AUD: 0.050,
	}
}

// Of returns the weight for a currency, 0 for currencies not in the table
func (w Weights) Of(currency string) float64 {
	return w[currency]
}

// Validate checks the table's configuration invariants: every weight
// non-negative and the USD base weight strictly below 1 (it feeds the
// 1 - W[USD] denominator of the impact formula). Meant to run at
// startup, not per calculation.
func (w Weights) Validate() error {
	for currency, weight := range w {
		if weight < 0 {
			return fmt.Errorf("weight for %s must be non-negative, got %f", currency, weight)
		}
	}
	if w.Of(USD) >= 1 {
		return fmt.Errorf("USD base weight must be below 1, got %f", w.Of(USD))
	}
	return nil
}
