package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable is returned when the price-history provider cannot serve a request.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientData is returned when too few valid observations remain.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidConfidence is returned for a quantile level outside (0,1) or an empty sample.
	ErrInvalidConfidence = errors.New("invalid confidence")
	// ErrInvalidConfiguration is returned for a non-positive simulation count or bad distribution input.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidPriceSeries is returned when a price series breaks ordering or positivity.
	ErrInvalidPriceSeries = errors.New("invalid price series")
)

// Stage names a step of the VaR pipeline.
type Stage string

const (
	StageConfig       Stage = "config"
	StageReturns      Stage = "returns"
	StageDistribution Stage = "distribution"
	StageSimulation   Stage = "simulation"
	StageQuantile     Stage = "quantile"
)

// StageError reports which pipeline stage failed. Partial holds the
// distribution parameters when they were estimated before the failure;
// they belong to an incomplete run and must not be reported as a result.
type StageError struct {
	Stage   Stage
	Partial *DistributionParameters
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Incomplete is always true; it lets callers that only see an interface
// distinguish diagnostic values from a finished report.
func (e *StageError) Incomplete() bool { return true }
