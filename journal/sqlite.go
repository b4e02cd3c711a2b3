package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var ErrRunNotFound = errors.New("backtest run not found")

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertTrade = `
	INSERT INTO trades
	(run_id, seq, trade_id, side, entry_time, exit_time, entry_price, exit_price, lot_size, pips, profit, reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertEquity = `
	INSERT INTO equity (run_id, time, balance, equity)
	VALUES (?, ?, ?, ?)`

func recordTrade(ctx context.Context, x execer, t TradeRecord) error {
	_, err := x.ExecContext(ctx, insertTrade,
		t.RunID, t.Seq, t.TradeID, t.Side, t.EntryTime, t.ExitTime,
		t.EntryPrice, t.ExitPrice, t.LotSize, t.Pips, t.Profit, t.Reason,
	)
	return err
}

func recordEquity(ctx context.Context, x execer, e EquitySnapshot) error {
	_, err := x.ExecContext(ctx, insertEquity, e.RunID, e.Time, e.Balance, e.Equity)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	return recordTrade(context.Background(), j.db, t)
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	return recordEquity(context.Background(), j.db, e)
}

// RecordRun stores the run row with its trades and equity curve in one
// transaction.
func (j *SQLite) RecordRun(ctx context.Context, run RunRecord, trades []TradeRecord, equity []EquitySnapshot) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, created, strategy, symbol, timeframe, dataset, config,
		 risk_pct, stop_pips, take_profit_pips, start_time, end_time, bars,
		 start_balance, end_balance, net_pl, return_pct, trades, wins, losses,
		 win_rate, gross_profit, gross_loss, profit_factor, max_dd_pct, sharpe, execution_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created, run.Strategy, run.Symbol, run.Timeframe, run.Dataset, run.Config,
		run.RiskPct, run.StopPips, run.TakeProfitPips, run.Start, run.End, run.Bars,
		run.StartBalance, run.EndBalance, run.NetPL, run.ReturnPct, run.Trades, run.Wins, run.Losses,
		run.WinRate, run.GrossProfit, run.GrossLoss, run.ProfitFactor, run.MaxDDPct, run.Sharpe, run.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	for _, t := range trades {
		t.RunID = run.RunID
		if err := recordTrade(ctx, tx, t); err != nil {
			return fmt.Errorf("insert trade %d: %w", t.Seq, err)
		}
	}
	for _, e := range equity {
		e.RunID = run.RunID
		if err := recordEquity(ctx, tx, e); err != nil {
			return fmt.Errorf("insert equity %s: %w", e.Time, err)
		}
	}

	return tx.Commit()
}

const selectRun = `
	SELECT run_id, created, strategy, symbol, timeframe, dataset, config,
	       risk_pct, stop_pips, take_profit_pips, start_time, end_time, bars,
	       start_balance, end_balance, net_pl, return_pct, trades, wins, losses,
	       win_rate, gross_profit, gross_loss, profit_factor, max_dd_pct, sharpe, execution_ms
	FROM backtest_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var r RunRecord
	err := s.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Symbol, &r.Timeframe, &r.Dataset, &r.Config,
		&r.RiskPct, &r.StopPips, &r.TakeProfitPips, &r.Start, &r.End, &r.Bars,
		&r.StartBalance, &r.EndBalance, &r.NetPL, &r.ReturnPct, &r.Trades, &r.Wins, &r.Losses,
		&r.WinRate, &r.GrossProfit, &r.GrossLoss, &r.ProfitFactor, &r.MaxDDPct, &r.Sharpe, &r.ExecutionMS,
	)
	return r, err
}

func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	r, err := scanRun(j.db.QueryRowContext(ctx, selectRun+` WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := selectRun + ` ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByRunID returns a run's trades in ledger order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, trade_id, side, entry_time, exit_time, entry_price, exit_price, lot_size, pips, profit, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.RunID, &t.Seq, &t.TradeID, &t.Side, &t.EntryTime, &t.ExitTime,
			&t.EntryPrice, &t.ExitPrice, &t.LotSize, &t.Pips, &t.Profit, &t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, time, balance, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Balance, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportRunOrg loads a stored run and renders its Org report.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	return FormatRunOrg(run, trades)
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
