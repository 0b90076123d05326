package model

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is a single dated adjusted-close observation.
// A missing price is carried as NaN.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Missing reports whether the observation has no usable price.
func (p PricePoint) Missing() bool { return math.IsNaN(p.Price) }

// PriceSeries holds the ordered price history of one instrument.
type PriceSeries struct {
	symbol string
	points []PricePoint
}

// NewPriceSeries validates and copies the given points.
// Timestamps must be strictly increasing and every present price positive and finite.
func NewPriceSeries(symbol string, points []PricePoint) (PriceSeries, error) {
	for i, p := range points {
		if i > 0 && !p.Time.After(points[i-1].Time) {
			return PriceSeries{}, fmt.Errorf("%w: timestamp %s at index %d is not after %s",
				ErrInvalidPriceSeries, p.Time.Format(time.DateOnly), i, points[i-1].Time.Format(time.DateOnly))
		}
		if p.Missing() {
			continue
		}
		if math.IsInf(p.Price, 0) || p.Price <= 0 {
			return PriceSeries{}, fmt.Errorf("%w: price %v at index %d", ErrInvalidPriceSeries, p.Price, i)
		}
	}
	cp := make([]PricePoint, len(points))
	copy(cp, points)
	return PriceSeries{symbol: symbol, points: cp}, nil
}

// Symbol returns the instrument the series belongs to.
func (s PriceSeries) Symbol() string { return s.symbol }

// Len returns the number of observations, missing ones included.
func (s PriceSeries) Len() int { return len(s.points) }

// Points returns a copy of the observations.
func (s PriceSeries) Points() []PricePoint {
	cp := make([]PricePoint, len(s.points))
	copy(cp, s.points)
	return cp
}

// Prices returns the raw prices in order, NaN for missing rows.
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s.points))
	for i, p := range s.points {
		prices[i] = p.Price
	}
	return prices
}

// Span returns the first and last timestamps, zero values for an empty series.
func (s PriceSeries) Span() (start, end time.Time) {
	if len(s.points) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.points[0].Time, s.points[len(s.points)-1].Time
}
