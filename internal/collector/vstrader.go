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

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API. AdjClose is
// optional; Close is used when it is absent.
type vsBar struct {
	Timestamp int64    `json:"timestamp"`
	Close     *float64 `json:"close"`
	AdjClose  *float64 `json:"adj_close"`
}

func (f *VsTraderFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if !start.IsZero() {
		q.Set("start", start.Format(time.DateOnly))
	}
	if !end.IsZero() {
		q.Set("end", end.Format(time.DateOnly))
	}
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.PriceSeries{}, unavailable(err)
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, unavailable(fmt.Errorf("fetch bars: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.PriceSeries{}, fmt.Errorf("%w: fetch bars: status %d, body: %s",
			model.ErrDataUnavailable, resp.StatusCode, string(body))
	}

	var bars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return model.PriceSeries{}, unavailable(fmt.Errorf("decode bars: %w", err))
	}
	points := make([]model.PricePoint, len(bars))
	for i, b := range bars {
		price := math.NaN()
		switch {
		case b.AdjClose != nil:
			price = *b.AdjClose
		case b.Close != nil:
			price = *b.Close
		}
		points[i] = model.PricePoint{Time: time.Unix(b.Timestamp, 0).UTC(), Price: price}
	}
	return buildSeries(symbol, points, start, end)
}
