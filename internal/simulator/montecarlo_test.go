package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"RiskSentinel/internal/model"
)

func seed(v int64) *int64 { return &v }

func TestSample_DeterministicWithSeed(t *testing.T) {
	params := model.DistributionParameters{Mean: 0.001, StdDev: 0.02}

	a, err := NewSampler(seed(42)).Sample(params, 1000)
	require.NoError(t, err)
	b, err := NewSampler(seed(42)).Sample(params, 1000)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewSampler(seed(43)).Sample(params, 1000)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSample_SameSamplerRepeats(t *testing.T) {
	s := NewSampler(seed(7))
	params := model.DistributionParameters{Mean: 0, StdDev: 1}
	a, err := s.Sample(params, 50)
	require.NoError(t, err)
	b, err := s.Sample(params, 50)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSample_ZeroVolatility(t *testing.T) {
	sample, err := NewSampler(nil).Sample(model.DistributionParameters{Mean: 0.0015, StdDev: 0}, 500)
	require.NoError(t, err)
	require.Len(t, sample, 500)
	for _, v := range sample {
		assert.Equal(t, 0.0015, v)
	}
}

func TestSample_Moments(t *testing.T) {
	params := model.DistributionParameters{Mean: 0.0005, StdDev: 0.02}
	sample, err := NewSampler(seed(1)).Sample(params, DefaultSimulationCount)
	require.NoError(t, err)
	require.Len(t, sample, DefaultSimulationCount)

	mean, std := stat.MeanStdDev(sample, nil)
	// standard error of the mean is 0.0002 at this size
	assert.InDelta(t, params.Mean, mean, 0.001)
	assert.InDelta(t, params.StdDev, std, 0.001)
	for _, v := range sample {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestSample_Unseeded(t *testing.T) {
	sample, err := NewSampler(nil).Sample(model.DistributionParameters{Mean: 0, StdDev: 1}, 10)
	require.NoError(t, err)
	assert.Len(t, sample, 10)
}

func TestSample_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		params model.DistributionParameters
		n      int
	}{
		{"zero count", model.DistributionParameters{StdDev: 0.01}, 0},
		{"negative count", model.DistributionParameters{StdDev: 0.01}, -5},
		{"negative volatility", model.DistributionParameters{StdDev: -0.01}, 10},
		{"nan volatility", model.DistributionParameters{StdDev: math.NaN()}, 10},
		{"infinite mean", model.DistributionParameters{Mean: math.Inf(1), StdDev: 0.01}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSampler(seed(1)).Sample(tt.params, tt.n)
			assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
		})
	}
}
