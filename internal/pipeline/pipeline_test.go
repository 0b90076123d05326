package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/recorder"
)

func seeded(v int64) *int64 { return &v }

func seriesOf(t *testing.T, prices []float64) model.PriceSeries {
	t.Helper()
	base := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{Time: base.AddDate(0, 0, i), Price: p}
	}
	s, err := model.NewPriceSeries("SIM", points)
	require.NoError(t, err)
	return s
}

func TestCompute_EndToEnd(t *testing.T) {
	prices := collector.GenerateRandomWalk(100, 499, 0, 0.02, 2024)
	require.Len(t, prices, 500)

	cfg := Config{ConfidenceLevel: 0.95, SimulationCount: 10000, RandomSeed: seeded(42)}
	report, err := Compute(seriesOf(t, prices), cfg)
	require.NoError(t, err)

	assert.Equal(t, "SIM", report.Symbol)
	assert.Equal(t, 499, report.Observations)
	assert.Equal(t, 10000, report.SimulationCount)
	assert.Equal(t, 0.95, report.ConfidenceLevel)
	assert.Equal(t, "linear", report.QuantileMethod)
	assert.InDelta(t, 0.0, report.MeanReturn, 0.005)
	assert.InDelta(t, 0.02, report.Volatility, 0.003)

	assert.GreaterOrEqual(t, report.VaR, -0.04)
	assert.LessOrEqual(t, report.VaR, -0.02)
	assert.InDelta(t, report.ParametricVaR, report.VaR, 0.002)
	assert.Less(t, report.ExpectedShortfall, report.VaR)
	assert.Len(t, report.Sample, 10000)
	assert.Len(t, report.Returns, 499)
}

func TestCompute_Reproducible(t *testing.T) {
	series := seriesOf(t, collector.GenerateRandomWalk(50, 120, 0.001, 0.015, 3))
	cfg := Config{ConfidenceLevel: 0.99, SimulationCount: 2000, RandomSeed: seeded(7), QuantileMethod: calculator.QuantileEmpirical}

	a, err := Compute(series, cfg)
	require.NoError(t, err)
	b, err := Compute(series, cfg)
	require.NoError(t, err)
	assert.Equal(t, a.VaR, b.VaR)
	assert.Equal(t, a.Sample, b.Sample)
	assert.Equal(t, "empirical", a.QuantileMethod)
}

func TestCompute_SingleSimulation(t *testing.T) {
	series := seriesOf(t, []float64{100, 101, 99.5, 102})
	report, err := Compute(series, Config{ConfidenceLevel: 0.95, SimulationCount: 1, RandomSeed: seeded(1)})
	require.NoError(t, err)
	require.Len(t, report.Sample, 1)
	assert.Equal(t, report.Sample[0], report.VaR)
	assert.Equal(t, report.Sample[0], report.ExpectedShortfall)
}

func TestCompute_ConstantPrices(t *testing.T) {
	report, err := Compute(seriesOf(t, []float64{10, 10, 10, 10}), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.MeanReturn)
	assert.Equal(t, 0.0, report.Volatility)
	assert.Equal(t, 0.0, report.VaR)
}

func TestCompute_Errors(t *testing.T) {
	good := seriesOf(t, []float64{100, 101, 99, 102, 98})
	tests := []struct {
		name   string
		series model.PriceSeries
		cfg    Config
		stage  model.Stage
		want   error
	}{
		{"confidence zero", good, Config{ConfidenceLevel: 0, SimulationCount: 10}, model.StageConfig, model.ErrInvalidConfidence},
		{"confidence one", good, Config{ConfidenceLevel: 1, SimulationCount: 10}, model.StageConfig, model.ErrInvalidConfidence},
		{"zero simulations", good, Config{ConfidenceLevel: 0.95, SimulationCount: 0}, model.StageConfig, model.ErrInvalidConfiguration},
		{"bad method", good, Config{ConfidenceLevel: 0.95, SimulationCount: 10, QuantileMethod: "sketch"}, model.StageConfig, model.ErrInvalidConfiguration},
		{"single price", seriesOf(t, []float64{100}), DefaultConfig(), model.StageReturns, model.ErrInsufficientData},
		{"two prices", seriesOf(t, []float64{100, 101}), DefaultConfig(), model.StageDistribution, model.ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Compute(tt.series, tt.cfg)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.want)

			var stageErr *model.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.stage, stageErr.Stage)
			assert.Nil(t, stageErr.Partial)
		})
	}
}

type brokenDrawer struct {
	sample model.SimulatedSample
	err    error
}

func (d brokenDrawer) Sample(model.DistributionParameters, int) (model.SimulatedSample, error) {
	return d.sample, d.err
}

func TestComputeWith_SimulationFailureKeepsParameters(t *testing.T) {
	series := seriesOf(t, []float64{100, 102, 99, 101, 103})
	cfg := Config{ConfidenceLevel: 0.95, SimulationCount: 100}

	want, err := Compute(series, Config{ConfidenceLevel: 0.95, SimulationCount: 10, RandomSeed: seeded(1)})
	require.NoError(t, err)

	tests := []struct {
		name   string
		drawer brokenDrawer
		is     error
	}{
		{"sampler error", brokenDrawer{err: fmt.Errorf("%w: rng exhausted", model.ErrInvalidConfiguration)}, model.ErrInvalidConfiguration},
		{"short sample", brokenDrawer{sample: model.SimulatedSample{0.01}}, model.ErrInvalidConfiguration},
		{"empty sample", brokenDrawer{sample: model.SimulatedSample{}}, model.ErrInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ComputeWith(series, cfg, tt.drawer)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.is)

			var stageErr *model.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, model.StageSimulation, stageErr.Stage)
			assert.True(t, stageErr.Incomplete())
			require.NotNil(t, stageErr.Partial)
			assert.Equal(t, want.MeanReturn, stageErr.Partial.Mean)
			assert.Equal(t, want.Volatility, stageErr.Partial.StdDev)
		})
	}
}

type failingStore struct {
	recorder.NoopRecorder
	tables int
}

func (f *failingStore) WriteTable(context.Context, *recorder.Table, recorder.WriteMode) error {
	f.tables++
	return errors.New("disk full")
}

func TestEngine_ArchiveFailureKeepsResult(t *testing.T) {
	store := &failingStore{}
	provider := &collector.MockFetcher{Days: 300, Volatility: 0.01, Seed: 5}
	engine := NewEngine(provider, store, Config{ConfidenceLevel: 0.95, SimulationCount: 500, RandomSeed: seeded(9)})

	report, err := engine.Run(context.Background(), "SPY", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.tables)
	assert.Contains(t, report.ArchiveError, "disk full")
	assert.NotEmpty(t, report.RunID)
	assert.Less(t, report.VaR, 0.0)
}

func TestEngine_ArchivesToSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "var.db"))
	require.NoError(t, err)
	defer store.Close()

	provider := &collector.MockFetcher{Days: 60, Volatility: 0.01, Seed: 11}
	engine := NewEngine(provider, store, Config{ConfidenceLevel: 0.9, SimulationCount: 200, RandomSeed: seeded(1)})

	report, err := engine.Run(ctx, "QQQ", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, report.ArchiveError)

	n, err := store.CountRows(ctx, recorder.TableReturns, "QQQ")
	require.NoError(t, err)
	assert.Equal(t, 60, n)
	n, err = store.CountRows(ctx, recorder.TableSimulations, "QQQ")
	require.NoError(t, err)
	assert.Equal(t, 200, n)

	latest, err := store.LatestReport(ctx, "QQQ")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, report.RunID, latest.RunID)
}

func TestEngine_ProviderFailure(t *testing.T) {
	engine := NewEngine(&collector.MockFetcher{Err: errors.New("provider outage")}, nil, DefaultConfig())
	_, err := engine.Run(context.Background(), "SPY", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestEngine_RunAll(t *testing.T) {
	provider := &collector.MockFetcher{Days: 100, Volatility: 0.02, Seed: 8}
	engine := NewEngine(provider, nil, Config{ConfidenceLevel: 0.95, SimulationCount: 1000, RandomSeed: seeded(100)})

	outcomes := engine.RunAll(context.Background(), []string{"A", "B", "C"}, time.Time{}, time.Time{})
	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		require.NoError(t, o.Err)
		assert.Equal(t, []string{"A", "B", "C"}[i], o.Symbol)
		assert.Equal(t, o.Symbol, o.Report.Symbol)
		require.NotNil(t, o.Report.Seed)
		assert.Equal(t, int64(100+i), *o.Report.Seed)
	}
	// same prices, different derived seeds
	assert.NotEqual(t, outcomes[0].Report.Sample, outcomes[1].Report.Sample)

	single, err := engine.RunWith(context.Background(), "B", time.Time{}, time.Time{},
		Config{ConfidenceLevel: 0.95, SimulationCount: 1000, RandomSeed: seeded(101)})
	require.NoError(t, err)
	assert.Equal(t, outcomes[1].Report.VaR, single.VaR)
}
