// Package simulator draws synthetic returns for Monte Carlo VaR.
//
// Draws come from a PCG generator (math/rand/v2) and are turned into
// standard normals with the ziggurat method of Rand.NormFloat64, then scaled
// as mean + std*z. A given (seed, N, mean, std) always yields the same sequence.
package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"RiskSentinel/internal/model"
)

// DefaultSimulationCount is the sample size used when none is configured.
const DefaultSimulationCount = 10000

// pcgStream is the second PCG word; the seed supplies the first.
const pcgStream = 0x9e3779b97f4a7c15

// Sampler draws a SimulatedSample from a fitted normal distribution.
// A nil Seed seeds each Sample call from the runtime entropy source.
type Sampler struct {
	Seed *int64
}

// NewSampler returns a Sampler, seeded when seed is non-nil.
func NewSampler(seed *int64) *Sampler {
	return &Sampler{Seed: seed}
}

// Sample returns n independent draws from Normal(params.Mean, params.StdDev).
// Every call owns a fresh generator, so concurrent calls share no state.
func (s *Sampler) Sample(params model.DistributionParameters, n int) (model.SimulatedSample, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: simulation count %d must be positive", model.ErrInvalidConfiguration, n)
	}
	if math.IsNaN(params.StdDev) || math.IsInf(params.StdDev, 0) || params.StdDev < 0 {
		return nil, fmt.Errorf("%w: volatility %v must be finite and non-negative", model.ErrInvalidConfiguration, params.StdDev)
	}
	if math.IsNaN(params.Mean) || math.IsInf(params.Mean, 0) {
		return nil, fmt.Errorf("%w: mean %v must be finite", model.ErrInvalidConfiguration, params.Mean)
	}

	rnd := s.newRand()
	sample := make(model.SimulatedSample, n)
	if params.StdDev == 0 {
		for i := range sample {
			sample[i] = params.Mean
		}
		return sample, nil
	}
	for i := range sample {
		sample[i] = params.Mean + params.StdDev*rnd.NormFloat64()
	}
	return sample, nil
}

func (s *Sampler) newRand() *rand.Rand {
	if s.Seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(*s.Seed), pcgStream))
}
