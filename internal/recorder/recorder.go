package recorder

import (
	"context"
	"fmt"

	"RiskSentinel/internal/model"
)

// Table names accepted by WriteTable.
const (
	TableReturns     = "returns"
	TableSimulations = "simulations"
)

// WriteMode selects what happens to rows previously written for the same symbol.
type WriteMode string

const (
	ModeOverwrite WriteMode = "overwrite"
	ModeAppend    WriteMode = "append"
)

// ParseWriteMode maps a config string to a WriteMode. Empty means overwrite.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case "", ModeOverwrite:
		return ModeOverwrite, nil
	case ModeAppend:
		return ModeAppend, nil
	default:
		return "", fmt.Errorf("unknown write mode %q", s)
	}
}

// Table is one intermediate series produced by a VaR run.
type Table struct {
	Name   string
	RunID  string
	Symbol string
	Values []float64
}

func (t *Table) validate() error {
	if t.Name != TableReturns && t.Name != TableSimulations {
		return fmt.Errorf("unknown table %q", t.Name)
	}
	if t.Symbol == "" {
		return fmt.Errorf("table %s: symbol is required", t.Name)
	}
	return nil
}

// Store archives VaR runs. Archival is optional for the pipeline; a failed
// write never invalidates a computed report.
type Store interface {
	WriteTable(ctx context.Context, t *Table, mode WriteMode) error
	RecordReport(ctx context.Context, r *model.Report) error
	Close() error
}
