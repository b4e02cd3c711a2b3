package backtest

import (
	"errors"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategy"
)

var (
	ErrPositionOpen = errors.New("position already open")
	ErrNoPosition   = errors.New("no open position")
)

// ExitReason records why a position closed.
type ExitReason string

const (
	ExitStopLoss    ExitReason = "stop_loss"
	ExitTakeProfit  ExitReason = "take_profit"
	ExitBacktestEnd ExitReason = "backtest_end"
)

// Position is the single in-flight trade of a run.
type Position struct {
	Side       strategy.Side
	EntryPrice float64
	EntryTime  time.Time
	StopLoss   float64
	TakeProfit float64
	LotSize    float64
	PipValue   float64
}

// pnl values the position at price. pips is the price move divided by the
// lot-adjusted pip value; profit is pips * PipValue * LotSize.
func (p Position) pnl(price float64) (pips, profit float64) {
	if p.Side == strategy.Sell {
		pips = (p.EntryPrice - price) / (p.PipValue / p.LotSize)
	} else {
		pips = (price - p.EntryPrice) / (p.PipValue / p.LotSize)
	}
	return pips, pips * p.PipValue * p.LotSize
}

// checkExit tests the bar's range against the position's stop and target.
// When one bar spans both levels the stop wins.
func checkExit(c market.Bar, p Position) (exitPx float64, reason ExitReason, hit bool) {
	switch p.Side {
	case strategy.Buy:
		if c.Low <= p.StopLoss {
			return p.StopLoss, ExitStopLoss, true
		}
		if c.High >= p.TakeProfit {
			return p.TakeProfit, ExitTakeProfit, true
		}
	case strategy.Sell:
		if c.High >= p.StopLoss {
			return p.StopLoss, ExitStopLoss, true
		}
		if c.Low <= p.TakeProfit {
			return p.TakeProfit, ExitTakeProfit, true
		}
	}
	return 0, "", false
}

type bookState int8

const (
	flat bookState = iota
	inPosition
)

// book is the run-scoped account: balance, marked equity, the ledger and at
// most one open position. open and close are the only transitions.
type book struct {
	balance float64
	equity  float64
	state   bookState
	pos     Position
	trades  []Trade
}

func newBook(balance float64) *book {
	return &book{
		balance: balance,
		equity:  balance,
		trades:  make([]Trade, 0),
	}
}

func (b *book) position() (Position, bool) {
	return b.pos, b.state == inPosition
}

func (b *book) open(p Position) error {
	if b.state == inPosition {
		return ErrPositionOpen
	}
	b.pos = p
	b.state = inPosition
	return nil
}

func (b *book) close(t time.Time, price float64, reason ExitReason) (Trade, error) {
	if b.state != inPosition {
		return Trade{}, ErrNoPosition
	}

	p := b.pos
	pips, profit := p.pnl(price)
	b.balance += profit

	tr := Trade{
		EntryTime:  p.EntryTime,
		ExitTime:   t,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		LotSize:    p.LotSize,
		Profit:     profit,
		Pips:       pips,
		ExitReason: reason,
	}
	b.trades = append(b.trades, tr)

	b.pos = Position{}
	b.state = flat
	return tr, nil
}

// markToMarket sets equity to balance plus the open position's floating
// profit at price. Flat books have equity == balance.
func (b *book) markToMarket(price float64) {
	if b.state != inPosition {
		b.equity = b.balance
		return
	}
	_, floating := b.pos.pnl(price)
	b.equity = b.balance + floating
}
