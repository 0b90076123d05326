package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/metrics"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/recorder"
)

// maxParallelRuns bounds RunAll fan-out.
const maxParallelRuns = 4

// Engine fetches price history from Provider, computes VaR and archives the
// run to Store. Store may be nil.
type Engine struct {
	Provider       collector.Fetcher
	Store          recorder.Store
	Config         Config
	ArchiveMode    recorder.WriteMode
	ArchiveSamples bool

	log *logrus.Entry
}

// NewEngine creates an Engine archiving returns and samples with overwrite semantics.
func NewEngine(provider collector.Fetcher, store recorder.Store, cfg Config) *Engine {
	return &Engine{
		Provider:       provider,
		Store:          store,
		Config:         cfg,
		ArchiveMode:    recorder.ModeOverwrite,
		ArchiveSamples: true,
		log:            logger.WithComponent("pipeline"),
	}
}

// Outcome is the result of one symbol in RunAll.
type Outcome struct {
	Symbol string
	Report *model.Report
	Err    error
}

// Run computes VaR for symbol over [start, end] with the engine config.
func (e *Engine) Run(ctx context.Context, symbol string, start, end time.Time) (*model.Report, error) {
	return e.RunWith(ctx, symbol, start, end, e.Config)
}

// RunWith is Run with an explicit config, used for per-request overrides.
func (e *Engine) RunWith(ctx context.Context, symbol string, start, end time.Time, cfg Config) (report *model.Report, err error) {
	began := time.Now()
	defer func() {
		metrics.ObserveRun(symbol, report, err, time.Since(began))
	}()

	log := e.entry().WithField("symbol", symbol)
	series, err := e.Provider.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		log.WithError(err).Warn("price history unavailable")
		return nil, fmt.Errorf("fetch %s from %s: %w", symbol, e.Provider.Name(), err)
	}
	log.Debugf("fetched %d observations from %s", series.Len(), e.Provider.Name())

	report, err = Compute(series, cfg)
	if err != nil {
		log.WithError(err).Warn("var computation failed")
		return nil, err
	}
	report.RunID = uuid.NewString()
	if !start.IsZero() {
		report.Start = start
	}
	if !end.IsZero() {
		report.End = end
	}

	if err := e.archive(ctx, report); err != nil {
		log.WithError(err).Warn("archive failed, keeping computed result")
		report.ArchiveError = err.Error()
	}

	log.WithFields(logrus.Fields{
		"run_id":     report.RunID,
		"mean":       report.MeanReturn,
		"volatility": report.Volatility,
		"var":        report.VaR,
		"confidence": report.ConfidenceLevel,
	}).Info("var computed")
	return report, nil
}

// RunAll computes every symbol independently and concurrently. A seeded
// config gives symbol i the seed base+i so runs stay reproducible and
// independent of each other.
func (e *Engine) RunAll(ctx context.Context, symbols []string, start, end time.Time) []Outcome {
	outcomes := make([]Outcome, len(symbols))
	var eg errgroup.Group
	eg.SetLimit(maxParallelRuns)
	for i, symbol := range symbols {
		cfg := e.Config
		if cfg.RandomSeed != nil {
			seed := *cfg.RandomSeed + int64(i)
			cfg.RandomSeed = &seed
		}
		eg.Go(func() error {
			report, err := e.RunWith(ctx, symbol, start, end, cfg)
			outcomes[i] = Outcome{Symbol: symbol, Report: report, Err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}

func (e *Engine) entry() *logrus.Entry {
	if e.log == nil {
		return logger.WithComponent("pipeline")
	}
	return e.log
}

func (e *Engine) archive(ctx context.Context, report *model.Report) error {
	if e.Store == nil {
		return nil
	}
	mode := e.ArchiveMode
	if mode == "" {
		mode = recorder.ModeOverwrite
	}

	var err error
	err = multierr.Append(err, e.Store.WriteTable(ctx, &recorder.Table{
		Name:   recorder.TableReturns,
		RunID:  report.RunID,
		Symbol: report.Symbol,
		Values: report.Returns,
	}, mode))
	if e.ArchiveSamples {
		err = multierr.Append(err, e.Store.WriteTable(ctx, &recorder.Table{
			Name:   recorder.TableSimulations,
			RunID:  report.RunID,
			Symbol: report.Symbol,
			Values: report.Sample,
		}, mode))
	}
	err = multierr.Append(err, e.Store.RecordReport(ctx, report))
	return err
}
