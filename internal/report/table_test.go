package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"RiskSentinel/internal/model"
	"RiskSentinel/internal/pipeline"
)

func TestRenderReport(t *testing.T) {
	seed := int64(42)
	var buf bytes.Buffer
	RenderReport(&buf, &model.Report{
		RunID:             "run-1",
		Symbol:            "SPY",
		VaR:               -0.0193,
		ConfidenceLevel:   0.95,
		SimulationCount:   10000,
		ExpectedShortfall: -0.0245,
		Observations:      499,
		QuantileMethod:    "linear",
		Seed:              &seed,
		Start:             time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		End:               time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "VaR SPY")
	assert.Contains(t, out, "VaR (95%)")
	assert.Contains(t, out, "-1.9300%")
	assert.Contains(t, out, "2023-01-03 to 2024-12-31")
	assert.Contains(t, out, "run-1")
	assert.NotContains(t, out, "Archive error")
}

func TestRenderOutcomes(t *testing.T) {
	var buf bytes.Buffer
	RenderOutcomes(&buf, []pipeline.Outcome{
		{Symbol: "SPY", Report: &model.Report{Symbol: "SPY", VaR: -0.02, ConfidenceLevel: 0.99}},
		{Symbol: "XYZ", Err: errors.New("price data unavailable")},
	})

	out := buf.String()
	assert.Contains(t, out, "SPY")
	assert.Contains(t, out, "99%")
	assert.Contains(t, out, "-2.0000%")
	assert.Contains(t, out, "price data unavailable")
}
