package recorder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/model"
)

// valueRecord is one row of the returns or simulations table.
type valueRecord struct {
	RunID  string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Index  int64   `parquet:"name=idx, type=INT64"`
	Value  float64 `parquet:"name=value, type=DOUBLE"`
}

// reportRecord is one row of the var_reports table.
type reportRecord struct {
	RunID             string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol            string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	ComputedAt        int64   `parquet:"name=computed_at, type=INT64"`
	StartDate         string  `parquet:"name=start_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	EndDate           string  `parquet:"name=end_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Observations      int64   `parquet:"name=observations, type=INT64"`
	MeanReturn        float64 `parquet:"name=mean_return, type=DOUBLE"`
	Volatility        float64 `parquet:"name=volatility, type=DOUBLE"`
	VaR               float64 `parquet:"name=var_value, type=DOUBLE"`
	ConfidenceLevel   float64 `parquet:"name=confidence_level, type=DOUBLE"`
	SimulationCount   int64   `parquet:"name=simulation_count, type=INT64"`
	ExpectedShortfall float64 `parquet:"name=expected_shortfall, type=DOUBLE"`
	ParametricVaR     float64 `parquet:"name=parametric_var, type=DOUBLE"`
	QuantileMethod    string  `parquet:"name=quantile_method, type=BYTE_ARRAY, convertedtype=UTF8"`
	Seed              *int64  `parquet:"name=seed, type=INT64, repetitiontype=OPTIONAL"`
}

// BlobSink is where encoded parquet files land.
type BlobSink interface {
	Put(ctx context.Context, key string, data []byte) error
	// Clear removes every object under prefix.
	Clear(ctx context.Context, prefix string) error
	Describe() string
}

// ParquetRecorder writes each table as parquet files laid out as
// <table>/symbol=<SYMBOL>/<file>.parquet. Overwrite clears the symbol's
// directory and writes data.parquet; append adds <run_id>.parquet.
type ParquetRecorder struct {
	sink        BlobSink
	compression string
	log         *logrus.Entry
}

// NewParquetRecorder creates a recorder on top of sink. compression is one of
// snappy, gzip or none.
func NewParquetRecorder(sink BlobSink, compression string) *ParquetRecorder {
	r := &ParquetRecorder{sink: sink, compression: compression, log: logger.WithComponent("recorder")}
	r.log.Infof("parquet recorder writing to %s", sink.Describe())
	return r
}

func (r *ParquetRecorder) WriteTable(ctx context.Context, t *Table, mode WriteMode) error {
	if err := t.validate(); err != nil {
		return err
	}
	records := make([]any, len(t.Values))
	for i, v := range t.Values {
		records[i] = valueRecord{RunID: t.RunID, Symbol: t.Symbol, Index: int64(i), Value: v}
	}
	data, err := r.encode(new(valueRecord), records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.Name, err)
	}

	dir := path.Join(t.Name, "symbol="+t.Symbol)
	var key string
	switch mode {
	case ModeOverwrite:
		if err := r.sink.Clear(ctx, dir); err != nil {
			return fmt.Errorf("clear %s: %w", dir, err)
		}
		key = path.Join(dir, "data.parquet")
	case ModeAppend:
		key = path.Join(dir, t.RunID+".parquet")
	default:
		return fmt.Errorf("unknown write mode %q", mode)
	}
	if err := r.sink.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	r.log.WithFields(logrus.Fields{
		"key":       key,
		"rows":      len(records),
		"file_size": len(data),
	}).Debug("parquet table written")
	return nil
}

func (r *ParquetRecorder) RecordReport(ctx context.Context, rep *model.Report) error {
	rec := reportRecord{
		RunID:             rep.RunID,
		Symbol:            rep.Symbol,
		ComputedAt:        rep.ComputedAt.UnixMilli(),
		StartDate:         formatDate(rep.Start),
		EndDate:           formatDate(rep.End),
		Observations:      int64(rep.Observations),
		MeanReturn:        rep.MeanReturn,
		Volatility:        rep.Volatility,
		VaR:               rep.VaR,
		ConfidenceLevel:   rep.ConfidenceLevel,
		SimulationCount:   int64(rep.SimulationCount),
		ExpectedShortfall: rep.ExpectedShortfall,
		ParametricVaR:     rep.ParametricVaR,
		QuantileMethod:    rep.QuantileMethod,
		Seed:              rep.Seed,
	}
	data, err := r.encode(new(reportRecord), []any{rec})
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	key := path.Join("var_reports", "symbol="+rep.Symbol, rep.RunID+".parquet")
	return r.sink.Put(ctx, key, data)
}

func (r *ParquetRecorder) Close() error { return nil }

func (r *ParquetRecorder) encode(schema any, records []any) ([]byte, error) {
	fw := newMemoryFileWriter()
	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	switch r.compression {
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	case "none", "uncompressed":
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	default:
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	}
	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return fw.Bytes(), nil
}

// memoryFileWriter implements source.ParquetFile for in-memory writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(string) (source.ParquetFile, error)   { return mfw, nil }

// Seek only reports the write position; the parquet writer never rewinds.
func (mfw *memoryFileWriter) Seek(int64, int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }
func (mfw *memoryFileWriter) Bytes() []byte               { return mfw.buffer.Bytes() }

// LocalSink stores blobs under a directory on disk.
type LocalSink struct {
	Dir string
}

func (s *LocalSink) Put(_ context.Context, key string, data []byte) error {
	p := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *LocalSink) Clear(_ context.Context, prefix string) error {
	return os.RemoveAll(filepath.Join(s.Dir, filepath.FromSlash(prefix)))
}

func (s *LocalSink) Describe() string { return "dir " + s.Dir }
