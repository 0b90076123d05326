package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/model"
)

// SQLiteRecorder persists VaR runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets dashboards read while runs write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.WithComponent("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS returns (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			idx         INTEGER NOT NULL,
			value       REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_returns_symbol ON returns(symbol, run_id)`,

		`CREATE TABLE IF NOT EXISTS simulations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			idx         INTEGER NOT NULL,
			value       REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_symbol ON simulations(symbol, run_id)`,

		`CREATE TABLE IF NOT EXISTS var_reports (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id             TEXT NOT NULL UNIQUE,
			timestamp          INTEGER NOT NULL,
			symbol             TEXT NOT NULL,
			start_date         TEXT,
			end_date           TEXT,
			observations       INTEGER,
			mean_return        REAL,
			volatility         REAL,
			var_value          REAL,
			confidence_level   REAL,
			simulation_count   INTEGER,
			expected_shortfall REAL,
			parametric_var     REAL,
			quantile_method    TEXT,
			seed               INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_var_reports_symbol ON var_reports(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// WriteTable stores t in the table of the same name. Overwrite replaces every
// row previously stored for the symbol; append keeps them.
func (r *SQLiteRecorder) WriteTable(ctx context.Context, t *Table, mode WriteMode) error {
	if err := t.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", t.Name, err)
	}
	defer tx.Rollback()

	switch mode {
	case ModeOverwrite:
		// t.Name is one of the validated constants, never user input.
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.Name+` WHERE symbol = ?`, t.Symbol); err != nil {
			return fmt.Errorf("clear %s: %w", t.Name, err)
		}
	case ModeAppend:
	default:
		return fmt.Errorf("unknown write mode %q", mode)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+t.Name+`
		(run_id, symbol, idx, value, recorded_at) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", t.Name, err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, v := range t.Values {
		if _, err := stmt.ExecContext(ctx, t.RunID, t.Symbol, i, v, now); err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", t.Name, err)
	}
	r.log.Debugf("wrote %d rows to %s for %s (%s)", len(t.Values), t.Name, t.Symbol, mode)
	return nil
}

func (r *SQLiteRecorder) RecordReport(ctx context.Context, rep *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var seed sql.NullInt64
	if rep.Seed != nil {
		seed = sql.NullInt64{Int64: *rep.Seed, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO var_reports
		(run_id, timestamp, symbol, start_date, end_date, observations,
		 mean_return, volatility, var_value, confidence_level, simulation_count,
		 expected_shortfall, parametric_var, quantile_method, seed)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.RunID, rep.ComputedAt.Unix(), rep.Symbol,
		formatDate(rep.Start), formatDate(rep.End), rep.Observations,
		rep.MeanReturn, rep.Volatility, rep.VaR, rep.ConfidenceLevel, rep.SimulationCount,
		rep.ExpectedShortfall, rep.ParametricVaR, rep.QuantileMethod, seed,
	)
	return err
}

// LatestReport returns the most recent report stored for symbol, or nil.
func (r *SQLiteRecorder) LatestReport(ctx context.Context, symbol string) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRowContext(ctx, `SELECT run_id, timestamp, observations, mean_return, volatility,
		var_value, confidence_level, simulation_count, expected_shortfall, parametric_var, quantile_method,
		start_date, end_date, seed
		FROM var_reports WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, symbol)

	rep := &model.Report{Symbol: symbol}
	var (
		ts         int64
		start, end sql.NullString
		seed       sql.NullInt64
	)
	err := row.Scan(&rep.RunID, &ts, &rep.Observations, &rep.MeanReturn, &rep.Volatility,
		&rep.VaR, &rep.ConfidenceLevel, &rep.SimulationCount, &rep.ExpectedShortfall,
		&rep.ParametricVaR, &rep.QuantileMethod, &start, &end, &seed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rep.ComputedAt = time.Unix(ts, 0)
	rep.Start, _ = time.Parse(time.DateOnly, start.String)
	rep.End, _ = time.Parse(time.DateOnly, end.String)
	if seed.Valid {
		rep.Seed = &seed.Int64
	}
	return rep, nil
}

// CountRows returns how many rows table holds for symbol.
func (r *SQLiteRecorder) CountRows(ctx context.Context, table, symbol string) (int, error) {
	t := &Table{Name: table, Symbol: symbol}
	if err := t.validate(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE symbol = ?`, symbol).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
