package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"RiskSentinel/internal/model"
)

var VaRValueMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "risksentinel_var_value",
		Help: "latest Monte Carlo VaR as a return, negative is a loss",
	}, []string{"symbol", "confidence"})

var MeanReturnMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "risksentinel_mean_return",
		Help: "mean daily return of the latest run",
	}, []string{"symbol"})

var VolatilityMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "risksentinel_volatility",
		Help: "sample standard deviation of daily returns of the latest run",
	}, []string{"symbol"})

var RunsTotalMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "risksentinel_runs_total",
		Help: "VaR runs by outcome",
	}, []string{"symbol", "status"})

var RunDurationMetrics = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "risksentinel_run_duration_seconds",
		Help:    "wall time of a VaR run including data retrieval and archival",
		Buckets: prometheus.DefBuckets,
	}, []string{"symbol"})

func init() {
	prometheus.MustRegister(
		VaRValueMetrics,
		MeanReturnMetrics,
		VolatilityMetrics,
		RunsTotalMetrics,
		RunDurationMetrics,
	)
}

// ObserveRun records the outcome of one run. report is nil on failure.
func ObserveRun(symbol string, report *model.Report, err error, elapsed time.Duration) {
	RunDurationMetrics.WithLabelValues(symbol).Observe(elapsed.Seconds())
	if err != nil {
		RunsTotalMetrics.WithLabelValues(symbol, "error").Inc()
		return
	}
	RunsTotalMetrics.WithLabelValues(symbol, "ok").Inc()
	confidence := prometheus.Labels{"symbol": symbol, "confidence": formatLevel(report.ConfidenceLevel)}
	VaRValueMetrics.With(confidence).Set(report.VaR)
	MeanReturnMetrics.WithLabelValues(symbol).Set(report.MeanReturn)
	VolatilityMetrics.WithLabelValues(symbol).Set(report.Volatility)
}

func formatLevel(level float64) string {
	return strconv.FormatFloat(level, 'f', -1, 64)
}
