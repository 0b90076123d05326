package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"RiskSentinel/internal/model"
	"RiskSentinel/internal/pipeline"
)

// FormatVaRReport formats a single VaR result into a Telegram message.
func FormatVaRReport(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📉 <b>VaR %s</b> | %s\n\n", html.EscapeString(r.Symbol), r.ComputedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Window: %s → %s (%d returns)\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.Observations))
	b.WriteString(fmt.Sprintf("Mean return: %+.4f%%\n", r.MeanReturn*100))
	b.WriteString(fmt.Sprintf("Volatility: %.4f%%\n\n", r.Volatility*100))

	b.WriteString(fmt.Sprintf("<b>1-day VaR %.1f%%:</b> %+.4f%%\n", r.ConfidenceLevel*100, r.VaR*100))
	b.WriteString(fmt.Sprintf("Expected shortfall: %+.4f%%\n", r.ExpectedShortfall*100))
	b.WriteString(fmt.Sprintf("Parametric VaR: %+.4f%%\n", r.ParametricVaR*100))
	b.WriteString(fmt.Sprintf("Simulations: %d (%s)", r.SimulationCount, r.QuantileMethod))
	if r.Seed != nil {
		b.WriteString(fmt.Sprintf(", seed %d", *r.Seed))
	}
	b.WriteString("\n")

	if r.ArchiveError != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ archive failed: %s\n", html.EscapeString(r.ArchiveError)))
	}
	return b.String()
}

// FormatBatchSummary formats the outcomes of a scheduled run, one line per symbol.
func FormatBatchSummary(outcomes []pipeline.Outcome, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>RiskSentinel daily VaR</b> | %s\n\n", at.Format("2006-01-02")))

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", html.EscapeString(o.Symbol), html.EscapeString(o.Err.Error())))
			continue
		}
		r := o.Report
		b.WriteString(fmt.Sprintf("• <b>%s</b> VaR %.0f%%: %+.2f%% | ES %+.2f%% | σ %.2f%%\n",
			html.EscapeString(o.Symbol), r.ConfidenceLevel*100, r.VaR*100, r.ExpectedShortfall*100, r.Volatility*100))
	}
	if failed > 0 {
		b.WriteString(fmt.Sprintf("\n%d of %d symbols failed", failed, len(outcomes)))
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "Available commands:\n• /var SYMBOL  compute VaR for SYMBOL\n• /help  show this message"
}
