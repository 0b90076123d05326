package collector

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"RiskSentinel/internal/model"
)

// MockFetcher returns controllable data for development and testing.
// With Prices set it serves them as consecutive days ending at end; otherwise
// it generates Days of returns drawn from Normal(Drift, Volatility).
type MockFetcher struct {
	Prices     []float64
	StartPrice float64
	Days       int
	Drift      float64
	Volatility float64
	Seed       uint64
	Err        error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	if m.Err != nil {
		return model.PriceSeries{}, unavailable(m.Err)
	}
	prices := m.Prices
	if prices == nil {
		prices = GenerateRandomWalk(m.StartPrice, m.Days, m.Drift, m.Volatility, m.Seed)
	}
	if len(prices) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: mock has no prices for %s", model.ErrDataUnavailable, symbol)
	}

	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	first := end.AddDate(0, 0, -(len(prices) - 1))
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{Time: first.AddDate(0, 0, i), Price: p}
	}
	return buildSeries(symbol, points, start, end)
}

// GenerateRandomWalk returns days+1 prices whose simple daily returns are
// drawn from Normal(drift, vol). The walk is fixed by seed.
func GenerateRandomWalk(startPrice float64, days int, drift, vol float64, seed uint64) []float64 {
	if startPrice <= 0 {
		startPrice = 100
	}
	if days < 0 {
		days = 0
	}
	rnd := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	prices := make([]float64, days+1)
	prices[0] = startPrice
	for i := 1; i <= days; i++ {
		r := drift + vol*rnd.NormFloat64()
		if r <= -0.99 {
			r = -0.99
		}
		prices[i] = prices[i-1] * (1 + r)
	}
	return prices
}
