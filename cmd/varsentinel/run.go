package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"RiskSentinel/internal/calculator"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/pipeline"
	"RiskSentinel/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "compute VaR once and print the result",
	Example: "  varsentinel run --symbol SPY --start 2023-01-01 --end 2024-12-31 --confidence 0.99 --seed 42\n" +
		"  varsentinel run --symbol SPY,QQQ --json",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		if flags.Changed("confidence") {
			cfg.Risk.ConfidenceLevel, _ = flags.GetFloat64("confidence")
		}
		if flags.Changed("simulations") {
			cfg.Risk.SimulationCount, _ = flags.GetInt("simulations")
		}
		if flags.Changed("seed") {
			seed, _ := flags.GetInt64("seed")
			cfg.Risk.RandomSeed = &seed
		}
		if flags.Changed("method") {
			method, _ := flags.GetString("method")
			m, err := calculator.ParseQuantileMethod(method)
			if err != nil {
				return err
			}
			cfg.Risk.QuantileMethod = string(m)
		}

		symbols, _ := flags.GetStringSlice("symbol")
		if len(symbols) == 0 {
			symbols = cfg.DataSource.Symbols
		}
		for i := range symbols {
			symbols[i] = strings.ToUpper(strings.TrimSpace(symbols[i]))
		}

		start, end, err := window(cmd)
		if err != nil {
			return err
		}

		engine, _, err := newEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer engine.Store.Close()

		asJSON, _ := flags.GetBool("json")
		if len(symbols) == 1 {
			r, err := engine.Run(ctx, symbols[0], start, end)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(r)
			}
			report.RenderReport(os.Stdout, r)
			return nil
		}

		outcomes := engine.RunAll(ctx, symbols, start, end)
		if asJSON {
			return writeJSON(outcomeViews(outcomes))
		}
		report.RenderOutcomes(os.Stdout, outcomes)
		for _, o := range outcomes {
			if o.Err != nil {
				return errors.New("one or more symbols failed")
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringSlice("symbol", nil, "symbols to evaluate (default data_source.symbols)")
	runCmd.Flags().String("start", "", "first day of the price window, YYYY-MM-DD (default end minus lookback_days)")
	runCmd.Flags().String("end", "", "last day of the price window, YYYY-MM-DD (default today)")
	runCmd.Flags().Float64("confidence", 0.95, "confidence level in (0,1)")
	runCmd.Flags().Int("simulations", 10000, "number of Monte Carlo draws")
	runCmd.Flags().Int64("seed", 0, "random seed for reproducible draws")
	runCmd.Flags().String("method", string(calculator.QuantileLinear), "quantile method: linear or empirical")
	runCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

func window(cmd *cobra.Command) (start, end time.Time, err error) {
	end = time.Now().UTC().Truncate(24 * time.Hour)
	if v, _ := cmd.Flags().GetString("end"); v != "" {
		if end, err = time.Parse(time.DateOnly, v); err != nil {
			return start, end, fmt.Errorf("invalid --end: %w", err)
		}
	}
	start = end.AddDate(0, 0, -cfg.DataSource.LookbackDays)
	if v, _ := cmd.Flags().GetString("start"); v != "" {
		if start, err = time.Parse(time.DateOnly, v); err != nil {
			return start, end, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if start.After(end) {
		return start, end, fmt.Errorf("--start %s is after --end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return start, end, nil
}

type outcomeView struct {
	Symbol string        `json:"symbol"`
	Report *model.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func outcomeViews(outcomes []pipeline.Outcome) []outcomeView {
	views := make([]outcomeView, len(outcomes))
	for i, o := range outcomes {
		views[i] = outcomeView{Symbol: o.Symbol, Report: o.Report}
		if o.Err != nil {
			views[i].Error = o.Err.Error()
		}
	}
	return views
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
