package calculator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"RiskSentinel/internal/model"
)

// EstimateDistribution returns the arithmetic mean and the Bessel-corrected
// sample standard deviation of the returns.
//
// The mean is a left-to-right sum divided by n. The variance uses gonum's
// corrected two-pass algorithm, so a constant series yields exactly zero.
func EstimateDistribution(returns model.ReturnSeries) (model.DistributionParameters, error) {
	if len(returns) < 2 {
		return model.DistributionParameters{}, fmt.Errorf("%w: %d returns, need at least 2 for a standard deviation",
			model.ErrInsufficientData, len(returns))
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if math.IsNaN(mean) || math.IsInf(mean, 0) || math.IsNaN(std) || math.IsInf(std, 0) {
		return model.DistributionParameters{}, fmt.Errorf("%w: non-finite moments (mean=%v std=%v)",
			model.ErrInsufficientData, mean, std)
	}
	return model.DistributionParameters{Mean: mean, StdDev: std}, nil
}

// ParametricQuantile is the closed-form q-quantile of Normal(mean, std).
func ParametricQuantile(params model.DistributionParameters, q float64) (float64, error) {
	if err := checkLevel(q); err != nil {
		return 0, err
	}
	return params.Mean + params.StdDev*distuv.UnitNormal.Quantile(q), nil
}
