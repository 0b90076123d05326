package calculator

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"RiskSentinel/internal/model"
)

// QuantileMethod selects how a quantile is read off a sorted sample.
type QuantileMethod string

const (
	// QuantileLinear interpolates linearly between the order statistics
	// around h = (n-1)q (Hyndman-Fan type 7).
	QuantileLinear QuantileMethod = "linear"
	// QuantileEmpirical returns the smallest observation whose empirical
	// CDF reaches q (Hyndman-Fan type 1).
	QuantileEmpirical QuantileMethod = "empirical"
)

// ParseQuantileMethod maps a config or query string to a method. Empty means linear.
func ParseQuantileMethod(s string) (QuantileMethod, error) {
	switch QuantileMethod(s) {
	case "", QuantileLinear:
		return QuantileLinear, nil
	case QuantileEmpirical:
		return QuantileEmpirical, nil
	default:
		return "", fmt.Errorf("%w: unknown quantile method %q", model.ErrInvalidConfiguration, s)
	}
}

// Quantile returns the q-quantile of sample using the given method.
// The sample is not modified.
func Quantile(sample []float64, q float64, method QuantileMethod) (float64, error) {
	if err := checkLevel(q); err != nil {
		return 0, err
	}
	if len(sample) == 0 {
		return 0, fmt.Errorf("%w: empty sample", model.ErrInvalidConfidence)
	}
	sorted := slices.Clone(sample)
	slices.Sort(sorted)
	return SortedQuantile(sorted, q, method)
}

// SortedQuantile is Quantile for a sample already in ascending order.
func SortedQuantile(sorted []float64, q float64, method QuantileMethod) (float64, error) {
	if err := checkLevel(q); err != nil {
		return 0, err
	}
	if len(sorted) == 0 {
		return 0, fmt.Errorf("%w: empty sample", model.ErrInvalidConfidence)
	}
	switch method {
	case "", QuantileLinear:
		return linearQuantile(sorted, q), nil
	case QuantileEmpirical:
		return stat.Quantile(q, stat.Empirical, sorted, nil), nil
	default:
		return 0, fmt.Errorf("%w: unknown quantile method %q", model.ErrInvalidConfiguration, method)
	}
}

// TailMean averages the sorted draws at or below threshold.
// The tail always contains the lowest draw.
func TailMean(sorted []float64, threshold float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	sum, n := 0.0, 0
	for _, v := range sorted {
		if v > threshold && n > 0 {
			break
		}
		sum += v
		n++
	}
	return sum / float64(n)
}

func linearQuantile(sorted []float64, q float64) float64 {
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func checkLevel(q float64) error {
	if math.IsNaN(q) || q <= 0 || q >= 1 {
		return fmt.Errorf("%w: quantile level %v outside (0,1)", model.ErrInvalidConfidence, q)
	}
	return nil
}
