package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fxdesk/cnyfix/pkg/models"
)

const frankfurterSymbols = "EUR,JPY,GBP,AUD,CNY"

// FrankfurterProvider implements Provider using the Frankfurter API
// (ECB daily reference rates, free, no API key needed). Rates come
// back per 1 USD and are repriced into market pair convention.
type FrankfurterProvider struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurterProvider creates new Frankfurter rate provider
func NewFrankfurterProvider(baseURL string, timeout time.Duration) *FrankfurterProvider {
	return &FrankfurterProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *FrankfurterProvider) GetName() string {
	return "Frankfurter"
}

// frankfurterResponse is the time-series payload: rates keyed by
// ISO date, then by currency code, all quoted per 1 unit of base
type frankfurterResponse struct {
	Base  string                        `json:"base"`
	Rates map[string]map[string]float64 `json:"rates"`
}

// FetchDailyCloses fetches the last days of ECB reference rates with
// base USD and converts them to the tracked pair symbols, ascending
// by date. Weekends and holidays have no rows, so the returned table
// is usually shorter than days.
func (p *FrankfurterProvider) FetchDailyCloses(ctx context.Context, days int) (models.RateHistory, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	url := fmt.Sprintf("%s/%s..%s?base=USD&symbols=%s",
		p.baseURL, start.Format("2006-01-02"), end.Format("2006-01-02"), frankfurterSymbols)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var result frankfurterResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	dates := make([]string, 0, len(result.Rates))
	for date := range result.Rates {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	history := make(models.RateHistory, 0, len(dates))
	for _, date := range dates {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in response: %w", date, err)
		}

		closes := repriceUSDBase(result.Rates[date])
		if len(closes) == 0 {
			continue
		}

		history = append(history, models.DailyRates{Date: day, Closes: closes})
	}

	return history, nil
}

// repriceUSDBase converts per-USD currency rates into the pair
// symbols the model tracks: JPY and CNY quote USD directly, EUR, GBP
// and AUD invert to the market convention (foreign as base)
func repriceUSDBase(perUSD map[string]float64) map[string]decimal.Decimal {
	closes := make(map[string]decimal.Decimal, len(perUSD))

	direct := map[string]string{
		"JPY": models.PairUSDJPY,
		"CNY": models.PairUSDCNY,
	}
	inverted := map[string]string{
		"EUR": models.PairEURUSD,
		"GBP": models.PairGBPUSD,
		"AUD": models.PairAUDUSD,
	}

	for code, pair := range direct {
		if rate, ok := perUSD[code]; ok && rate > 0 {
			closes[pair] = models.NewDecimal(rate)
		}
	}
	for code, pair := range inverted {
		if rate, ok := perUSD[code]; ok && rate > 0 {
			closes[pair] = models.NewDecimal(1 / rate)
		}
	}

	return closes
}
