package analysis

import (
	"testing"
	"time"

	"github.com/fxdesk/cnyfix/pkg/models"
)

// generateTestCloses builds a daily close series with a constant
// fractional drift per day
func generateTestCloses(pair string, count int, start, drift float64) []models.DailyClose {
	closes := make([]models.DailyClose, count)
	price := start

	for i := 0; i < count; i++ {
		closes[i] = models.DailyClose{
			Date:  time.Now().AddDate(0, 0, -(count - i)),
			Pair:  pair,
			Close: models.NewDecimal(price),
		}
		price *= 1 + drift
	}

	return closes
}

func TestDetectTrend(t *testing.T) {
	t.Run("uptrend", func(t *testing.T) {
		closes := generateTestCloses(models.PairUSDCNY, 40, 7.0, 0.002)

		trend, err := DetectTrend(models.PairUSDCNY, closes)
		if err != nil {
			t.Fatalf("Failed to detect trend: %v", err)
		}

		if trend.Direction != TrendUp {
			t.Errorf("Expected uptrend, got %s", trend.Direction)
		}
		if trend.SMAFast <= trend.SMASlow {
			t.Errorf("Fast SMA %.4f should lead slow SMA %.4f in an uptrend", trend.SMAFast, trend.SMASlow)
		}
	})

	t.Run("downtrend", func(t *testing.T) {
		closes := generateTestCloses(models.PairEURUSD, 40, 1.10, -0.002)

		trend, err := DetectTrend(models.PairEURUSD, closes)
		if err != nil {
			t.Fatalf("Failed to detect trend: %v", err)
		}

		if trend.Direction != TrendDown {
			t.Errorf("Expected downtrend, got %s", trend.Direction)
		}
	})

	t.Run("flat is sideways", func(t *testing.T) {
		closes := generateTestCloses(models.PairUSDJPY, 40, 147.0, 0)

		trend, err := DetectTrend(models.PairUSDJPY, closes)
		if err != nil {
			t.Fatalf("Failed to detect trend: %v", err)
		}

		if trend.Direction != TrendSideways {
			t.Errorf("Expected sideways, got %s", trend.Direction)
		}
	})
}

func TestDetectTrend_InsufficientData(t *testing.T) {
	closes := generateTestCloses(models.PairUSDCNY, 10, 7.0, 0.001)

	if _, err := DetectTrend(models.PairUSDCNY, closes); err == nil {
		t.Error("Should error with insufficient closes")
	}
}
