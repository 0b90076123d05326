// Package pipeline sequences the VaR stages: returns, distribution,
// Monte Carlo sampling and quantile extraction.
package pipeline

import (
	"fmt"
	"math"
	"slices"
	"time"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/simulator"
)

// Config holds the parameters of one VaR computation.
type Config struct {
	// ConfidenceLevel is the probability that the loss stays within VaR, in (0,1).
	ConfidenceLevel float64
	// SimulationCount is the Monte Carlo sample size.
	SimulationCount int
	// RandomSeed makes the draws reproducible when set.
	RandomSeed     *int64
	QuantileMethod calculator.QuantileMethod
}

// DefaultConfig returns 95% confidence, 10,000 unseeded draws and linear quantiles.
func DefaultConfig() Config {
	return Config{
		ConfidenceLevel: 0.95,
		SimulationCount: simulator.DefaultSimulationCount,
		QuantileMethod:  calculator.QuantileLinear,
	}
}

// Validate checks the configuration before any stage runs.
func (c Config) Validate() error {
	if math.IsNaN(c.ConfidenceLevel) || c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("%w: confidence level %v outside (0,1)", model.ErrInvalidConfidence, c.ConfidenceLevel)
	}
	if c.SimulationCount <= 0 {
		return fmt.Errorf("%w: simulation count %d must be positive", model.ErrInvalidConfiguration, c.SimulationCount)
	}
	if _, err := calculator.ParseQuantileMethod(string(c.QuantileMethod)); err != nil {
		return err
	}
	return nil
}

// Tail returns the quantile level q = 1 - ConfidenceLevel.
func (c Config) Tail() float64 {
	return 1 - c.ConfidenceLevel
}

// Drawer produces the Monte Carlo sample. *simulator.Sampler implements it.
type Drawer interface {
	Sample(params model.DistributionParameters, n int) (model.SimulatedSample, error)
}

// Compute runs the four stages over series. A failing stage is reported as a
// *model.StageError wrapping the stage's own error.
func Compute(series model.PriceSeries, cfg Config) (*model.Report, error) {
	return ComputeWith(series, cfg, simulator.NewSampler(cfg.RandomSeed))
}

// ComputeWith is Compute with an explicit sample source.
func ComputeWith(series model.PriceSeries, cfg Config, drawer Drawer) (*model.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &model.StageError{Stage: model.StageConfig, Err: err}
	}

	returns, err := calculator.BuildReturns(series)
	if err != nil {
		return nil, &model.StageError{Stage: model.StageReturns, Err: err}
	}

	params, err := calculator.EstimateDistribution(returns)
	if err != nil {
		return nil, &model.StageError{Stage: model.StageDistribution, Err: err}
	}

	sample, err := drawer.Sample(params, cfg.SimulationCount)
	if err != nil {
		return nil, &model.StageError{Stage: model.StageSimulation, Partial: &params, Err: err}
	}

	if len(sample) != cfg.SimulationCount {
		return nil, &model.StageError{Stage: model.StageSimulation, Partial: &params,
			Err: fmt.Errorf("%w: drew %d of %d simulations", model.ErrInvalidConfiguration, len(sample), cfg.SimulationCount)}
	}

	q := cfg.Tail()
	sorted := slices.Clone(sample)
	slices.Sort(sorted)
	valueAtRisk, err := calculator.SortedQuantile(sorted, q, cfg.QuantileMethod)
	if err != nil {
		return nil, &model.StageError{Stage: model.StageQuantile, Partial: &params, Err: err}
	}
	parametric, err := calculator.ParametricQuantile(params, q)
	if err != nil {
		return nil, &model.StageError{Stage: model.StageQuantile, Partial: &params, Err: err}
	}

	method := cfg.QuantileMethod
	if method == "" {
		method = calculator.QuantileLinear
	}
	start, end := series.Span()
	return &model.Report{
		Symbol:            series.Symbol(),
		MeanReturn:        params.Mean,
		Volatility:        params.StdDev,
		VaR:               valueAtRisk,
		ConfidenceLevel:   cfg.ConfidenceLevel,
		SimulationCount:   cfg.SimulationCount,
		ExpectedShortfall: calculator.TailMean(sorted, valueAtRisk),
		ParametricVaR:     parametric,
		Observations:      len(returns),
		QuantileMethod:    string(method),
		Seed:              cfg.RandomSeed,
		Start:             start,
		End:               end,
		ComputedAt:        time.Now(),
		Returns:           returns,
		Sample:            sample,
	}, nil
}
