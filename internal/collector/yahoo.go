package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"RiskSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// Nullable prices: Yahoo sends null for sessions without a print.
type yahooQuote struct {
	Close []*float64 `json:"close"`
}

type yahooAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote    []yahooQuote    `json:"quote"`
				AdjClose []yahooAdjClose `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory returns daily adjusted closes; null closes become missing prices.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(-2, 0, 0)
	}
	if end.Before(start) {
		return model.PriceSeries{}, fmt.Errorf("%w: empty range %s..%s", model.ErrDataUnavailable,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.AddDate(0, 0, 1).Unix()))
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PriceSeries{}, unavailable(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, unavailable(fmt.Errorf("yahoo fetch: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, unavailable(fmt.Errorf("yahoo read body: %w", err))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return model.PriceSeries{}, fmt.Errorf("%w: yahoo status %d, body: %s", model.ErrDataUnavailable, resp.StatusCode, string(body))
		}
		return model.PriceSeries{}, unavailable(fmt.Errorf("yahoo decode: %w", err))
	}
	if chart.Chart.Error != nil {
		return model.PriceSeries{}, fmt.Errorf("%w: yahoo api error for %s: %s", model.ErrDataUnavailable, symbol, chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("%w: yahoo status %d", model.ErrDataUnavailable, resp.StatusCode)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: yahoo returned no data for %s", model.ErrDataUnavailable, symbol)
	}

	result := chart.Chart.Result[0]
	closes := pickCloses(result.Indicators.AdjClose, result.Indicators.Quote)
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		price := math.NaN()
		if i < len(closes) && closes[i] != nil {
			price = *closes[i]
		}
		points = append(points, model.PricePoint{Time: time.Unix(ts, 0).UTC(), Price: price})
	}
	return buildSeries(symbol, points, start, end)
}

// pickCloses prefers adjusted closes and falls back to raw closes.
func pickCloses(adj []yahooAdjClose, quote []yahooQuote) []*float64 {
	if len(adj) > 0 && len(adj[0].AdjClose) > 0 {
		return adj[0].AdjClose
	}
	if len(quote) > 0 {
		return quote[0].Close
	}
	return nil
}
