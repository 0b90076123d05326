package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"RiskSentinel/internal/model"
)

// Fetcher retrieves daily adjusted-close history for a symbol.
// start and end are inclusive calendar days. Failures wrap model.ErrDataUnavailable.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error)
	Name() string
}

// unavailable wraps err as a data-unavailable error unless it already is one.
func unavailable(err error) error {
	if errors.Is(err, model.ErrDataUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrDataUnavailable, err)
}

// inRange reports whether t falls on a calendar day within [start, end].
func inRange(t, start, end time.Time) bool {
	day := t.UTC().Truncate(24 * time.Hour)
	if !start.IsZero() && day.Before(start.UTC().Truncate(24*time.Hour)) {
		return false
	}
	if !end.IsZero() && day.After(end.UTC().Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// buildSeries orders points chronologically, keeps the last of any repeated
// timestamp, trims to [start, end] and validates the result.
func buildSeries(symbol string, points []model.PricePoint, start, end time.Time) (model.PriceSeries, error) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	kept := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if !inRange(p.Time, start, end) {
			continue
		}
		if n := len(kept); n > 0 && !p.Time.After(kept[n-1].Time) {
			kept[n-1] = p
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: no prices for %s in range", model.ErrDataUnavailable, symbol)
	}

	series, err := model.NewPriceSeries(symbol, kept)
	if err != nil {
		return model.PriceSeries{}, unavailable(err)
	}
	return series, nil
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
