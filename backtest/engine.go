// Package backtest replays bars against a chart strategy: one position at a
// time, risk-sized entries at the bar open, stop/target exits evaluated on
// each bar's range.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/logger"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategy"
)

// ErrInvalidInput is wrapped when a run's own parameters are unusable.
var ErrInvalidInput = errors.New("invalid backtest input")

// Input is one run's worth of data. Bars must be sorted ascending by Time;
// the engine does not check.
type Input struct {
	RunID          string
	Bars           []market.Bar
	Instrument     market.InstrumentSpec
	Strategy       strategy.Definition
	InitialBalance float64
}

// Validate rejects inputs before any arithmetic runs.
func (in Input) Validate() error {
	if math.IsNaN(in.InitialBalance) || math.IsInf(in.InitialBalance, 0) || in.InitialBalance <= 0 {
		return fmt.Errorf("%w: initial_balance must be positive, got %v", ErrInvalidInput, in.InitialBalance)
	}
	if err := in.Instrument.Validate(); err != nil {
		return err
	}
	return in.Strategy.Validate()
}

// Engine runs backtests. It holds configuration only, so one Engine may serve
// many concurrent Run calls.
type Engine struct {
	log     *logger.Logger
	now     func() time.Time
	tradeID func() string
}

type Option func(*Engine)

// WithLogger routes position events (debug level) to l.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock replaces time.Now for measuring execution time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTradeIDs stamps every closed trade with next().
func WithTradeIDs(next func() string) Option {
	return func(e *Engine) {
		e.tradeID = next
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run is shorthand for NewEngine(opts...).Run(in).
func Run(in Input, opts ...Option) (*Result, error) {
	return NewEngine(opts...).Run(in)
}

// Run replays in.Bars. Bar 0 only seeds the first entry decision; from bar 1
// on each bar is marked, recorded on the equity curve, checked for an exit and
// then, if flat, checked for an entry using the previous bar's close. A
// position still open after the last bar is closed at its close.
func (e *Engine) Run(in Input) (*Result, error) {
	started := e.now()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	pipSize, err := market.PipSize(in.Instrument)
	if err != nil {
		return nil, err
	}
	pipValue, err := market.PipValue(in.Instrument, pipSize)
	if err != nil {
		return nil, err
	}

	log := e.log.Component("backtest")
	if in.RunID != "" {
		log = log.Run(in.RunID)
	}

	bars := in.Bars
	def := in.Strategy
	b := newBook(in.InitialBalance)
	curve := make([]EquityPoint, 0, max(len(bars)-1, 0))

	for i := 1; i < len(bars); i++ {
		bar := bars[i]

		b.markToMarket(bar.Close)
		curve = append(curve, EquityPoint{Time: bar.Time, Equity: b.equity, Balance: b.balance})

		if pos, ok := b.position(); ok {
			if px, reason, hit := checkExit(bar, pos); hit {
				if err := e.closePosition(b, log, bar.Time, px, reason); err != nil {
					return nil, err
				}
			}
		}

		if _, ok := b.position(); ok {
			continue
		}
		side, ok := strategy.EvaluateEntry(bars[i-1].Close, def.Elements)
		if !ok {
			continue
		}

		pos := newPosition(side, bar.Time, bar.Open, def, pipSize, pipValue, b.balance, in.Instrument)
		if err := b.open(pos); err != nil {
			return nil, err
		}
		log.Debug("position opened",
			"side", pos.Side.String(),
			"time", pos.EntryTime,
			"price", pos.EntryPrice,
			"stop_loss", pos.StopLoss,
			"take_profit", pos.TakeProfit,
			"lots", pos.LotSize,
			"risk_pct", risk.RiskPct(risk.PlannedRisk(pos.LotSize, def.Exit.StopLossPips, pipValue), b.balance))
	}

	if _, ok := b.position(); ok {
		last := bars[len(bars)-1]
		if err := e.closePosition(b, log, last.Time, last.Close, ExitBacktestEnd); err != nil {
			return nil, err
		}
	}

	res := &Result{
		RunID:          in.RunID,
		Symbol:         in.Instrument.Symbol,
		Strategy:       def.Name,
		Bars:           len(bars),
		InitialBalance: in.InitialBalance,
		FinalBalance:   b.balance,
		NetProfit:      b.balance - in.InitialBalance,
		Trades:         b.trades,
		EquityCurve:    curve,
	}
	if len(bars) > 0 {
		res.Start = bars[0].Time
		res.End = bars[len(bars)-1].Time
	}
	res.Summary = metrics.Compute(res.Profits(), res.Equities(), in.InitialBalance)
	res.ExecutionTime = e.now().Sub(started)
	res.ExecutionMS = res.ExecutionTime.Milliseconds()

	log.Debug("backtest finished",
		"bars", res.Bars,
		"trades", res.TotalTrades,
		"final_balance", res.FinalBalance)
	return res, nil
}

func (e *Engine) closePosition(b *book, log *logger.Logger, t time.Time, px float64, reason ExitReason) error {
	tr, err := b.close(t, px, reason)
	if err != nil {
		return err
	}
	if e.tradeID != nil {
		tr.ID = e.tradeID()
		b.trades[len(b.trades)-1] = tr
	}
	log.Debug("position closed",
		"side", tr.Side.String(),
		"time", tr.ExitTime,
		"price", tr.ExitPrice,
		"reason", string(tr.ExitReason),
		"profit", tr.Profit)
	return nil
}

// newPosition brackets price by the strategy's pip distances and sizes the
// position from the current balance.
func newPosition(side strategy.Side, t time.Time, price float64, def strategy.Definition,
	pipSize, pipValue, balance float64, spec market.InstrumentSpec) Position {

	slDist := def.Exit.StopLossPips * pipSize
	tpDist := def.Exit.TakeProfitPips * pipSize

	var sl, tp float64
	if side == strategy.Buy {
		sl, tp = price-slDist, price+tpDist
	} else {
		sl, tp = price+slDist, price-tpDist
	}

	size := risk.Calculate(risk.Inputs{
		Balance:     balance,
		RiskPercent: def.Risk.RiskPercent,
		StopPips:    def.Exit.StopLossPips,
		PipValue:    pipValue,
		MinLot:      spec.MinLot,
		MaxLot:      spec.MaxLot,
	})

	return Position{
		Side:       side,
		EntryPrice: price,
		EntryTime:  t,
		StopLoss:   sl,
		TakeProfit: tp,
		LotSize:    size.Lots,
		PipValue:   pipValue,
	}
}
