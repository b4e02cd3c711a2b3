// Package sweep runs one strategy across a grid of exit and risk settings.
// Every combination is an independent backtest over the same bars.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/strategy"
)

// Grid lists the values to try per parameter. An empty dimension keeps the
// base strategy's value.
type Grid struct {
	StopLossPips   []float64 `json:"stop_loss_pips,omitempty" yaml:"stop_loss_pips,omitempty"`
	TakeProfitPips []float64 `json:"take_profit_pips,omitempty" yaml:"take_profit_pips,omitempty"`
	RiskPercent    []float64 `json:"risk_percent,omitempty" yaml:"risk_percent,omitempty"`
}

type Params struct {
	StopLossPips   float64
	TakeProfitPips float64
	RiskPercent    float64
}

// Apply returns a copy of def with p's exits and risk.
func (p Params) Apply(def strategy.Definition) strategy.Definition {
	def.Exit.StopLossPips = p.StopLossPips
	def.Exit.TakeProfitPips = p.TakeProfitPips
	def.Risk.RiskPercent = p.RiskPercent
	return def
}

func orBase(vals []float64, base float64) []float64 {
	if len(vals) == 0 {
		return []float64{base}
	}
	return vals
}

// Combinations expands the grid in stop, target, risk order.
func (g Grid) Combinations(base strategy.Definition) []Params {
	sls := orBase(g.StopLossPips, base.Exit.StopLossPips)
	tps := orBase(g.TakeProfitPips, base.Exit.TakeProfitPips)
	rps := orBase(g.RiskPercent, base.Risk.RiskPercent)

	out := make([]Params, 0, len(sls)*len(tps)*len(rps))
	for _, sl := range sls {
		for _, tp := range tps {
			for _, rp := range rps {
				out = append(out, Params{StopLossPips: sl, TakeProfitPips: tp, RiskPercent: rp})
			}
		}
	}
	return out
}

type Outcome struct {
	Params
	Result *backtest.Result
}

type Options struct {
	// Parallelism bounds concurrent runs. <= 0 uses GOMAXPROCS.
	Parallelism int
	Engine      *backtest.Engine
	// RunID names each combination's run. nil leaves RunID empty.
	RunID func(Params) string
	// OnResult is called from worker goroutines as runs finish.
	OnResult func(Outcome)
}

// Run backtests every combination of g applied to in.Strategy. Outcomes come
// back in Combinations order. The first failing run cancels the rest.
func Run(ctx context.Context, in backtest.Input, g Grid, opts Options) ([]Outcome, error) {
	combos := g.Combinations(in.Strategy)
	out := make([]Outcome, len(combos))

	engine := opts.Engine
	if engine == nil {
		engine = backtest.NewEngine()
	}
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, p := range combos {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run := in
			run.Strategy = p.Apply(in.Strategy)
			if opts.RunID != nil {
				run.RunID = opts.RunID(p)
			}

			res, err := engine.Run(run)
			if err != nil {
				return fmt.Errorf("sl=%v tp=%v risk=%v: %w", p.StopLossPips, p.TakeProfitPips, p.RiskPercent, err)
			}
			out[i] = Outcome{Params: p, Result: res}
			if opts.OnResult != nil {
				opts.OnResult(out[i])
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Key picks the statistic outcomes are ranked by.
type Key string

const (
	ByNetProfit    Key = "net_profit"
	ByProfitFactor Key = "profit_factor"
	BySharpe       Key = "sharpe"
	ByWinRate      Key = "win_rate"
	ByDrawdown     Key = "max_drawdown"
)

func (k Key) value(r *backtest.Result) (float64, error) {
	switch k {
	case ByNetProfit:
		return r.NetProfit, nil
	case ByProfitFactor:
		return r.ProfitFactor, nil
	case BySharpe:
		return r.SharpeRatio, nil
	case ByWinRate:
		return r.WinRate, nil
	case ByDrawdown:
		// smaller drawdown ranks higher
		return -r.MaxDrawdown, nil
	}
	return 0, fmt.Errorf("unknown sort key %q", k)
}

// Rank sorts outcomes best first by k. Ties keep grid order.
func Rank(outcomes []Outcome, k Key) error {
	if _, err := k.value(&backtest.Result{}); err != nil {
		return err
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, _ := k.value(outcomes[i].Result)
		b, _ := k.value(outcomes[j].Result)
		return a > b
	})
	return nil
}
