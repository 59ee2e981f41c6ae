package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fxdesk/cnyfix/internal/adapters/config"
	"github.com/fxdesk/cnyfix/internal/adapters/rates"
	"github.com/fxdesk/cnyfix/internal/fixing"
	"github.com/fxdesk/cnyfix/internal/overnight"
	"github.com/fxdesk/cnyfix/pkg/logger"
	"github.com/fxdesk/cnyfix/pkg/models"
)

func main() {
	var (
		prevClose = flag.Float64("prev-close", 0, "Prior day official close (4:30 PM CST)")
		prevFix   = flag.Float64("prev-fix", 0, "Prior day fixing")
		ccfPips   = flag.Float64("ccf", 0, "Counter-cyclical factor in pips")
		offline   = flag.Bool("offline", false, "Skip the market fetch and assume a neutral basket")
	)

	flag.Parse()

	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	inputs := models.FixingInputs{PrevClose: *prevClose, PrevFix: *prevFix, CCFPips: *ccfPips}
	if err := inputs.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid inputs: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	calc, err := fixing.NewCalculator(cfg.BasketWeights())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid basket configuration: %v\n", err)
		os.Exit(1)
	}

	var snapshot *models.MarketSnapshot
	if !*offline {
		provider := rates.NewFrankfurterProvider(cfg.Provider.BaseURL, cfg.Provider.Timeout)
		extractor := overnight.NewExtractor(provider, cfg.Provider.HistoryDays)

		snapshot, err = extractor.Snapshot(context.Background())
		if err != nil {
			logger.Warn("market data unavailable, assuming neutral basket", zap.Error(err))
			snapshot = nil
		}
	}

	prediction, breakdown := calc.Compute(inputs, snapshot)

	printReport(inputs, snapshot, prediction, breakdown)
}

func printReport(inputs models.FixingInputs, snapshot *models.MarketSnapshot, prediction models.Prediction, breakdown models.ComponentBreakdown) {
	fmt.Println("USD/CNY Fixing Prediction")
	fmt.Println("=========================")

	if snapshot == nil {
		fmt.Println("Market data: unavailable (neutral basket assumed)")
	} else {
		fmt.Printf("Market data as of %s:\n", snapshot.ObservedAt.Format("2006-01-02"))
		for _, pair := range models.TrackedPairs() {
			quote, _ := snapshot.Quote(pair)
			fmt.Printf("  %s  %10.4f  %+6.2f%%\n", pair, quote.Rate, quote.Chg*100)
		}
		if snapshot.Reference > 0 {
			fmt.Printf("  %s  %10.4f  (reference)\n", models.PairUSDCNY, snapshot.Reference)
		}
	}

	fmt.Println()
	fmt.Println("Components (pips):")
	fmt.Printf("  Spot closing gap:        %+8.1f\n", breakdown.GapPips)
	fmt.Printf("  Basket impact:           %+8.1f\n", breakdown.BasketPips)
	fmt.Printf("  Counter-cyclical factor: %+8.1f\n", breakdown.CCFPips)
	fmt.Printf("  Total:                   %+8.1f\n", breakdown.Total())

	fmt.Println()
	fmt.Printf("Theoretical fix (no CCF): %.4f\n", prediction.TheoreticalFix)
	fmt.Printf("Final prediction:         %.4f\n", prediction.PredictedFix)

	if prediction.HighVolatility(inputs.PrevClose) {
		fmt.Printf("\nWARNING: predicted fix deviates from the prior close by more than %.4f\n",
			models.VolatilityAlertBand)
	}
}
