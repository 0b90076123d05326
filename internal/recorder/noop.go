package recorder

import (
	"context"

	"RiskSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when no store is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) WriteTable(_ context.Context, _ *Table, _ WriteMode) error { return nil }

func (n *NoopRecorder) RecordReport(_ context.Context, _ *model.Report) error { return nil }

func (n *NoopRecorder) Close() error { return nil }
