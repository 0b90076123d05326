package calculator

import (
	"fmt"

	"RiskSentinel/internal/model"
)

// BuildReturns computes simple percentage changes between consecutive valid prices.
// Missing prices are dropped before differencing, so a gap joins its neighbours.
func BuildReturns(series model.PriceSeries) (model.ReturnSeries, error) {
	prices := validPrices(series)
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: %d valid prices for %q, need at least 2",
			model.ErrInsufficientData, len(prices), series.Symbol())
	}
	returns := make(model.ReturnSeries, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = prices[i]/prices[i-1] - 1
	}
	return returns, nil
}

func validPrices(series model.PriceSeries) []float64 {
	points := series.Points()
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Missing() {
			continue
		}
		prices = append(prices, p.Price)
	}
	return prices
}
