// Package journal persists backtest runs: a SQLite store keyed by run ID,
// flat CSV exports and an Org-mode run report.
package journal

import (
	"encoding/json"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/strategy"
)

// RunRecord mirrors the backtest_runs table.
type RunRecord struct {
	RunID     string
	Created   time.Time
	Strategy  string
	Symbol    string
	Timeframe string
	Dataset   string
	Config    []byte // strategy definition as JSON

	RiskPct        float64
	StopPips       float64
	TakeProfitPips float64

	Start time.Time
	End   time.Time
	Bars  int

	StartBalance float64
	EndBalance   float64
	NetPL        float64
	ReturnPct    float64

	Trades int
	Wins   int
	Losses int

	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	MaxDDPct     float64
	Sharpe       float64

	ExecutionMS int64

	Notes []string
}

// RR is the reward multiple of the stop distance.
func (r RunRecord) RR() float64 {
	if r.StopPips == 0 {
		return 0
	}
	return r.TakeProfitPips / r.StopPips
}

type TradeRecord struct {
	RunID      string
	Seq        int
	TradeID    string
	Side       string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	LotSize    float64
	Pips       float64
	Profit     float64
	Reason     string
}

type EquitySnapshot struct {
	RunID   string
	Time    time.Time
	Balance float64
	Equity  float64
}

// Journal receives a run's ledger one row at a time.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// NewRunRecord flattens a finished run and the definition that produced it.
func NewRunRecord(res *backtest.Result, def strategy.Definition, dataset string, created time.Time) (RunRecord, error) {
	cfg, err := json.Marshal(def)
	if err != nil {
		return RunRecord{}, err
	}
	return RunRecord{
		RunID:          res.RunID,
		Created:        created,
		Strategy:       def.Name,
		Symbol:         res.Symbol,
		Timeframe:      def.Timeframe,
		Dataset:        dataset,
		Config:         cfg,
		RiskPct:        def.Risk.RiskPercent,
		StopPips:       def.Exit.StopLossPips,
		TakeProfitPips: def.Exit.TakeProfitPips,
		Start:          res.Start,
		End:            res.End,
		Bars:           res.Bars,
		StartBalance:   res.InitialBalance,
		EndBalance:     res.FinalBalance,
		NetPL:          res.NetProfit,
		ReturnPct:      res.ReturnPct(),
		Trades:         res.TotalTrades,
		Wins:           res.WinningTrades,
		Losses:         res.LosingTrades,
		WinRate:        res.WinRate,
		GrossProfit:    res.GrossProfit,
		GrossLoss:      res.GrossLoss,
		ProfitFactor:   res.ProfitFactor,
		MaxDDPct:       res.MaxDrawdown,
		Sharpe:         res.SharpeRatio,
		ExecutionMS:    res.ExecutionMS,
	}, nil
}

// TradeRecords converts the run's ledger, numbering trades from 1.
func TradeRecords(res *backtest.Result) []TradeRecord {
	out := make([]TradeRecord, len(res.Trades))
	for i, t := range res.Trades {
		out[i] = TradeRecord{
			RunID:      res.RunID,
			Seq:        i + 1,
			TradeID:    t.ID,
			Side:       t.Side.String(),
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			LotSize:    t.LotSize,
			Pips:       t.Pips,
			Profit:     t.Profit,
			Reason:     string(t.ExitReason),
		}
	}
	return out
}

func EquitySnapshots(res *backtest.Result) []EquitySnapshot {
	out := make([]EquitySnapshot, len(res.EquityCurve))
	for i, p := range res.EquityCurve {
		out[i] = EquitySnapshot{
			RunID:   res.RunID,
			Time:    p.Time,
			Balance: p.Balance,
			Equity:  p.Equity,
		}
	}
	return out
}

// Write streams every trade and equity point of res into j.
func Write(j Journal, res *backtest.Result) error {
	for _, t := range TradeRecords(res) {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	for _, e := range EquitySnapshots(res) {
		if err := j.RecordEquity(e); err != nil {
			return err
		}
	}
	return nil
}
