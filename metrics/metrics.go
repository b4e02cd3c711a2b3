// Package metrics computes performance statistics over a finished trade
// ledger and equity curve.
//
// Degenerate inputs never produce errors, NaN or Inf: each statistic has a
// fixed fallback of 0.
package metrics

import (
	"math"

	"github.com/shopspring/decimal"
)

// TradingDays annualizes the per-trade Sharpe ratio.
const TradingDays = 252

// Summary holds the headline statistics of one run, rounded for storage:
// percentages and profit factor to 2 places, Sharpe to 4.
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
}

// Compute summarizes trade profits (in ledger order) and equity values (one
// per processed bar). With no trades every statistic is 0.
func Compute(profits, equity []float64, initialBalance float64) Summary {
	s := Summary{TotalTrades: len(profits)}
	if len(profits) == 0 {
		return s
	}

	for _, p := range profits {
		switch {
		case p > 0:
			s.WinningTrades++
		case p < 0:
			s.LosingTrades++
		}
	}
	s.GrossProfit, s.GrossLoss = Gross(profits)

	s.WinRate = Round(WinRate(profits), 2)
	s.ProfitFactor = Round(ProfitFactor(profits), 2)
	s.MaxDrawdown = Round(MaxDrawdown(equity), 2)
	s.SharpeRatio = Round(SharpeRatio(profits, initialBalance), 4)
	return s
}

// WinRate is the percentage of trades with a strictly positive profit.
func WinRate(profits []float64) float64 {
	if len(profits) == 0 {
		return 0
	}
	wins := 0
	for _, p := range profits {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(profits)) * 100
}

// Gross returns the sum of winning profits and the absolute sum of losing
// ones.
func Gross(profits []float64) (profit, loss float64) {
	var neg float64
	for _, p := range profits {
		if p > 0 {
			profit += p
		} else if p < 0 {
			neg += p
		}
	}
	return profit, math.Abs(neg)
}

// ProfitFactor is gross profit over gross loss. Without any losing trade it
// is 0, not infinity.
func ProfitFactor(profits []float64) float64 {
	gp, gl := Gross(profits)
	if gl > 0 {
		return gp / gl
	}
	return 0
}

// MaxDrawdown is the largest peak-to-trough fall of equity, as a percentage
// of the running peak. Points where the peak is not positive contribute 0.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	var maxDD float64
	peak := equity[0]
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - e) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// SharpeRatio is mean/stdev of per-trade returns (profit / initialBalance)
// scaled by sqrt(TradingDays). Population standard deviation is used. It is 0
// with fewer than two trades or zero deviation.
func SharpeRatio(profits []float64, initialBalance float64) float64 {
	if len(profits) < 2 || initialBalance <= 0 {
		return 0
	}

	returns := make([]float64, len(profits))
	var sum float64
	for i, p := range profits {
		returns[i] = p / initialBalance
		sum += returns[i]
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(TradingDays)
}

// roundExp keeps enough digits of a float's binary value that a tie is only
// seen when the float is exactly halfway.
const roundExp = -30

// Round rounds the binary value of x half to even at places decimals, so
// 2.675 (stored as 2.67499...) becomes 2.67 and 0.125 becomes 0.12.
// Non-finite values are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloatWithExponent(x, roundExp).RoundBank(places).InexactFloat64()
}
