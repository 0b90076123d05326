package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
)

func makeSeries(t *testing.T, prices ...float64) model.PriceSeries {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{Time: base.AddDate(0, 0, i), Price: p}
	}
	series, err := model.NewPriceSeries("TEST", points)
	require.NoError(t, err)
	return series
}

func TestBuildReturns_SimpleChange(t *testing.T) {
	prices := []float64{100, 110, 99, 99, 120.5}
	returns, err := BuildReturns(makeSeries(t, prices...))
	require.NoError(t, err)
	require.Len(t, returns, len(prices)-1)

	for i := range returns {
		assert.InDelta(t, prices[i+1]/prices[i]-1, returns[i], 1e-15)
	}
}

func TestBuildReturns_ReconstructPrices(t *testing.T) {
	prices := []float64{52.1, 53.7, 51.2, 50.9, 55.0, 54.2, 56.8}
	returns, err := BuildReturns(makeSeries(t, prices...))
	require.NoError(t, err)

	p := prices[0]
	for i, r := range returns {
		p *= 1 + r
		assert.InEpsilon(t, prices[i+1], p, 1e-12)
	}
}

func TestBuildReturns_DropsMissingPrices(t *testing.T) {
	returns, err := BuildReturns(makeSeries(t, 100, math.NaN(), 110, math.NaN(), 121))
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-12)
	assert.InDelta(t, 0.1, returns[1], 1e-12)
	for _, r := range returns {
		assert.False(t, math.IsNaN(r))
	}
}

func TestBuildReturns_InsufficientData(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
	}{
		{"empty", nil},
		{"single price", []float64{100}},
		{"one valid after dropping missing", []float64{math.NaN(), 100, math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildReturns(makeSeries(t, tt.prices...))
			assert.ErrorIs(t, err, model.ErrInsufficientData)
		})
	}
}

func TestNewPriceSeries_Validation(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := model.NewPriceSeries("X", []model.PricePoint{{Time: day, Price: 1}, {Time: day, Price: 2}})
	assert.ErrorIs(t, err, model.ErrInvalidPriceSeries)

	_, err = model.NewPriceSeries("X", []model.PricePoint{{Time: day, Price: -1}})
	assert.ErrorIs(t, err, model.ErrInvalidPriceSeries)

	_, err = model.NewPriceSeries("X", []model.PricePoint{{Time: day, Price: math.Inf(1)}})
	assert.ErrorIs(t, err, model.ErrInvalidPriceSeries)
}
