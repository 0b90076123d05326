// Package report renders VaR results for the terminal.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"RiskSentinel/internal/model"
	"RiskSentinel/internal/pipeline"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleRounded
	style.Format.Header = text.FormatUpper
	t.SetStyle(style)
	return t
}

func pct(v float64) string {
	return fmt.Sprintf("%+.4f%%", v*100)
}

// RenderReport writes one report as a two-column table.
func RenderReport(w io.Writer, r *model.Report) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("VaR %s", r.Symbol))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Window", fmt.Sprintf("%s to %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))},
		{"Observations", r.Observations},
		{"Mean return", pct(r.MeanReturn)},
		{"Volatility", fmt.Sprintf("%.4f%%", r.Volatility*100)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{fmt.Sprintf("VaR (%g%%)", r.ConfidenceLevel*100), pct(r.VaR)},
		{"Expected shortfall", pct(r.ExpectedShortfall)},
		{"Parametric VaR", pct(r.ParametricVaR)},
		{"Simulations", r.SimulationCount},
		{"Quantile method", r.QuantileMethod},
	})
	if r.Seed != nil {
		t.AppendRow(table.Row{"Seed", *r.Seed})
	}
	if r.RunID != "" {
		t.AppendRow(table.Row{"Run", r.RunID})
	}
	if r.ArchiveError != "" {
		t.AppendRow(table.Row{"Archive error", r.ArchiveError})
	}
	t.Render()
}

// RenderOutcomes writes one row per symbol, failures included.
func RenderOutcomes(w io.Writer, outcomes []pipeline.Outcome) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Symbol", "Confidence", "VaR", "ES", "Mean", "Volatility", "Error"})
	for _, o := range outcomes {
		if o.Err != nil {
			t.AppendRow(table.Row{o.Symbol, "", "", "", "", "", o.Err.Error()})
			continue
		}
		r := o.Report
		t.AppendRow(table.Row{
			o.Symbol,
			fmt.Sprintf("%g%%", r.ConfidenceLevel*100),
			pct(r.VaR),
			pct(r.ExpectedShortfall),
			pct(r.MeanReturn),
			fmt.Sprintf("%.4f%%", r.Volatility*100),
			"",
		})
	}
	t.Render()
}
