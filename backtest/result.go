package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/strategy"
)

// Trade is an immutable ledger entry written when a position closes.
type Trade struct {
	ID         string        `json:"id,omitempty"`
	EntryTime  time.Time     `json:"entry_time"`
	ExitTime   time.Time     `json:"exit_time"`
	Side       strategy.Side `json:"type"`
	EntryPrice float64       `json:"entry_price"`
	ExitPrice  float64       `json:"exit_price"`
	LotSize    float64       `json:"lot_size"`
	Profit     float64       `json:"profit"`
	Pips       float64       `json:"pips"`
	ExitReason ExitReason    `json:"exit_reason"`
}

// EquityPoint is the account state after marking one bar.
type EquityPoint struct {
	Time    time.Time `json:"timestamp"`
	Equity  float64   `json:"equity"`
	Balance float64   `json:"balance"`
}

// Result is everything a run produces. The embedded Summary carries the
// rounded statistics.
type Result struct {
	RunID    string `json:"run_id,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Strategy string `json:"strategy,omitempty"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Bars  int       `json:"bars"`

	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	NetProfit      float64 `json:"net_profit"`

	metrics.Summary

	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`

	ExecutionTime time.Duration `json:"-"`
	ExecutionMS   int64         `json:"execution_time_ms"`
}

// Profits returns trade profits in ledger order.
func (r *Result) Profits() []float64 {
	out := make([]float64, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = t.Profit
	}
	return out
}

// Equities returns the equity values of the curve.
func (r *Result) Equities() []float64 {
	out := make([]float64, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		out[i] = p.Equity
	}
	return out
}

// ReturnPct is net profit as a percentage of the initial balance.
func (r *Result) ReturnPct() float64 {
	if r.InitialBalance == 0 {
		return 0
	}
	return r.NetProfit / r.InitialBalance * 100
}
