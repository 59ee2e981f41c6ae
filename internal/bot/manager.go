package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fxdesk/cnyfix/internal/analysis"
	"github.com/fxdesk/cnyfix/internal/fixing"
	"github.com/fxdesk/cnyfix/pkg/logger"
	"github.com/fxdesk/cnyfix/pkg/models"
)

// CCF policy convention bounds, enforced at this input boundary.
// The calculator itself never clamps.
const (
	ccfMinPips = -100
	ccfMaxPips = 100
)

const trendCloses = 60

// Snapshotter produces a market snapshot from the data feed
type Snapshotter interface {
	Snapshot(ctx context.Context) (*models.MarketSnapshot, error)
}

// SnapshotCache is the optional time-boxed snapshot store
type SnapshotCache interface {
	Get(ctx context.Context) *models.MarketSnapshot
	Put(ctx context.Context, snapshot *models.MarketSnapshot) error
	Invalidate(ctx context.Context) error
	Health() error
}

// ClosesStore reads stored daily closes for trend display
type ClosesStore interface {
	GetCloses(ctx context.Context, pair string, limit int) ([]models.DailyClose, error)
}

// Manager wires the calculator, the data feed and the optional cache
// and store behind the Telegram command surface
type Manager struct {
	calc         *fixing.Calculator
	snapshotter  Snapshotter
	cache        SnapshotCache // nil when caching disabled
	closes       ClosesStore   // nil when persistence disabled
	providerName string
}

// NewManager creates new bot manager. cache and closes may be nil.
func NewManager(calc *fixing.Calculator, snapshotter Snapshotter, cache SnapshotCache, closes ClosesStore, providerName string) *Manager {
	return &Manager{
		calc:         calc,
		snapshotter:  snapshotter,
		cache:        cache,
		closes:       closes,
		providerName: providerName,
	}
}

// HandleFix computes a prediction from "/fix <prev_close> <prev_fix> <ccf_pips>"
func (m *Manager) HandleFix(ctx context.Context, args string) (string, error) {
	inputs, err := parseFixArgs(args)
	if err != nil {
		return "", err
	}

	snapshot := m.marketSnapshot(ctx)
	prediction, breakdown := m.calc.Compute(inputs, snapshot)

	return renderPrediction(inputs, snapshot, prediction, breakdown), nil
}

// HandleMarket shows the overnight basket moves
func (m *Manager) HandleMarket(ctx context.Context) (string, error) {
	snapshot := m.marketSnapshot(ctx)
	if snapshot == nil {
		return "⚠️ Market data unavailable. Predictions will assume a neutral basket.", nil
	}
	return renderMarket(snapshot), nil
}

// HandleTrend shows the stored-close trend for "/trend <pair>"
func (m *Manager) HandleTrend(ctx context.Context, args string) (string, error) {
	if m.closes == nil {
		return "", fmt.Errorf("close history is disabled (set DB_ENABLED=true)")
	}

	pair := strings.ToUpper(strings.TrimSpace(args))
	if pair == "" {
		pair = models.PairUSDCNY
	}
	if !isKnownPair(pair) {
		return "", fmt.Errorf("unknown pair %q, expected one of %s or %s",
			pair, strings.Join(models.TrackedPairs(), ", "), models.PairUSDCNY)
	}

	closes, err := m.closes.GetCloses(ctx, pair, trendCloses)
	if err != nil {
		return "", err
	}

	trend, err := analysis.DetectTrend(pair, closes)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"📈 *%s trend*\n\nLast close: `%.4f`\nSMA(5): `%.4f`\nSMA(20): `%.4f`\nDirection: *%s*",
		trend.Pair, trend.Last, trend.SMAFast, trend.SMASlow, trend.Direction,
	), nil
}

// HandleRefresh drops the cached snapshot
func (m *Manager) HandleRefresh(ctx context.Context) (string, error) {
	if m.cache == nil {
		return "Snapshot caching is disabled, every prediction already fetches fresh data.", nil
	}
	if err := m.cache.Invalidate(ctx); err != nil {
		return "", err
	}
	return "♻️ Snapshot cache invalidated. Next prediction fetches fresh rates.", nil
}

// HandleStatus reports collaborator health
func (m *Manager) HandleStatus(ctx context.Context) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "🩺 *Status*\n\nProvider: `%s`\n", m.providerName)

	if m.cache == nil {
		b.WriteString("Cache: `disabled`\n")
	} else if err := m.cache.Health(); err != nil {
		fmt.Fprintf(&b, "Cache: `unhealthy` (%v)\n", err)
	} else {
		b.WriteString("Cache: `ok`\n")
	}

	if m.closes == nil {
		b.WriteString("Close history: `disabled`\n")
	} else {
		b.WriteString("Close history: `ok`\n")
	}

	return b.String(), nil
}

// marketSnapshot resolves the snapshot: cache first, then a live
// fetch. Any failure degrades to nil — the neutral-basket assumption —
// never to an aborted prediction.
func (m *Manager) marketSnapshot(ctx context.Context) *models.MarketSnapshot {
	if m.cache != nil {
		if snapshot := m.cache.Get(ctx); snapshot != nil {
			return snapshot
		}
	}

	snapshot, err := m.snapshotter.Snapshot(ctx)
	if err != nil {
		logger.Warn("market data unavailable, assuming neutral basket", zap.Error(err))
		return nil
	}

	if m.cache != nil {
		if err := m.cache.Put(ctx, snapshot); err != nil {
			logger.Warn("failed to cache snapshot", zap.Error(err))
		}
	}

	return snapshot
}

// parseFixArgs validates the three scalar inputs from the command line
func parseFixArgs(args string) (models.FixingInputs, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return models.FixingInputs{}, fmt.Errorf("usage: /fix <prev_close> <prev_fix> <ccf_pips>, e.g. /fix 6.9850 6.9820 -10")
	}

	prevClose, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return models.FixingInputs{}, fmt.Errorf("bad prev_close %q: %w", fields[0], err)
	}

	prevFix, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return models.FixingInputs{}, fmt.Errorf("bad prev_fix %q: %w", fields[1], err)
	}

	ccf, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return models.FixingInputs{}, fmt.Errorf("bad ccf_pips %q: %w", fields[2], err)
	}
	if ccf < ccfMinPips || ccf > ccfMaxPips {
		return models.FixingInputs{}, fmt.Errorf("ccf_pips %v outside policy bounds [%d, %d]", ccf, ccfMinPips, ccfMaxPips)
	}

	inputs := models.FixingInputs{PrevClose: prevClose, PrevFix: prevFix, CCFPips: ccf}
	if err := inputs.Validate(); err != nil {
		return models.FixingInputs{}, err
	}

	return inputs, nil
}

func isKnownPair(pair string) bool {
	if pair == models.PairUSDCNY {
		return true
	}
	for _, p := range models.TrackedPairs() {
		if p == pair {
			return true
		}
	}
	return false
}

// renderPrediction formats the full model output for Telegram Markdown
func renderPrediction(inputs models.FixingInputs, snapshot *models.MarketSnapshot, prediction models.Prediction, breakdown models.ComponentBreakdown) string {
	var b strings.Builder

	b.WriteString("🇨🇳 *USD/CNY Fixing Prediction*\n\n")

	if snapshot == nil {
		b.WriteString("⚠️ Market data unavailable — neutral basket assumed.\n\n")
	} else {
		b.WriteString(renderMarket(snapshot))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "*Components (pips)*\n")
	fmt.Fprintf(&b, "Spot closing gap: `%+.1f`\n", breakdown.GapPips)
	fmt.Fprintf(&b, "Basket impact: `%+.1f`\n", breakdown.BasketPips)
	fmt.Fprintf(&b, "Counter-cyclical factor: `%+.1f`\n", breakdown.CCFPips)
	fmt.Fprintf(&b, "Total: `%+.1f`\n\n", breakdown.Total())

	fmt.Fprintf(&b, "Theoretical fix (no CCF): `%.4f`\n", prediction.TheoreticalFix)
	fmt.Fprintf(&b, "*FINAL PREDICTION: `%.4f`*\n", prediction.PredictedFix)

	if prediction.HighVolatility(inputs.PrevClose) {
		fmt.Fprintf(&b, "\n⚠️ *High volatility alert*: predicted fix deviates from the prior close by more than %.4f.\n",
			models.VolatilityAlertBand)
	}

	return b.String()
}

// renderMarket formats the overnight basket moves
func renderMarket(snapshot *models.MarketSnapshot) string {
	var b strings.Builder

	b.WriteString("*Overnight basket moves*\n")
	for _, pair := range models.TrackedPairs() {
		quote, _ := snapshot.Quote(pair)
		decimals := 4
		if pair == models.PairUSDJPY {
			decimals = 2
		}
		fmt.Fprintf(&b, "%s: `%.*f` (%+.2f%%)\n", displayPair(pair), decimals, quote.Rate, quote.Chg*100)
	}

	if snapshot.Reference > 0 {
		fmt.Fprintf(&b, "%s (reference): `%.4f`\n", displayPair(models.PairUSDCNY), snapshot.Reference)
	}
	fmt.Fprintf(&b, "As of: `%s`\n", snapshot.ObservedAt.Format("2006-01-02"))

	return b.String()
}

// displayPair renders EURUSD as EUR/USD
func displayPair(pair string) string {
	if len(pair) != 6 {
		return pair
	}
	return pair[:3] + "/" + pair[3:]
}
