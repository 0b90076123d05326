package model

import "time"

// ReturnSeries holds simple periodic returns, never NaN.
type ReturnSeries []float64

// DistributionParameters describes the normal distribution fitted to a ReturnSeries.
type DistributionParameters struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// SimulatedSample holds the draws of one Monte Carlo run.
type SimulatedSample []float64

// Report is the outcome of one VaR computation.
// VaR is expressed as a return: negative values are losses.
type Report struct {
	RunID           string  `json:"run_id"`
	Symbol          string  `json:"symbol"`
	MeanReturn      float64 `json:"mean_return"`
	Volatility      float64 `json:"volatility"`
	VaR             float64 `json:"var_value"`
	ConfidenceLevel float64 `json:"confidence_level"`
	SimulationCount int     `json:"simulation_count"`

	ExpectedShortfall float64   `json:"expected_shortfall"`
	ParametricVaR     float64   `json:"parametric_var"`
	Observations      int       `json:"observations"`
	QuantileMethod    string    `json:"quantile_method"`
	Seed              *int64    `json:"seed,omitempty"`
	Start             time.Time `json:"start,omitzero"`
	End               time.Time `json:"end,omitzero"`
	ComputedAt        time.Time `json:"computed_at"`
	ArchiveError      string    `json:"archive_error,omitempty"`

	// Intermediate tables, handed to the archival store only.
	Returns ReturnSeries    `json:"-"`
	Sample  SimulatedSample `json:"-"`
}

// Parameters returns the fitted distribution of the report.
func (r *Report) Parameters() DistributionParameters {
	return DistributionParameters{Mean: r.MeanReturn, StdDev: r.Volatility}
}
