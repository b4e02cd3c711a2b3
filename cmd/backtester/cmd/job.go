package cmd

import (
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/logger"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategy"
)

// job is everything a run or sweep needs, loaded from the config file.
type job struct {
	cfg  *config.Config
	log  *logger.Logger
	def  strategy.Definition
	spec market.InstrumentSpec
	bars []market.Bar
}

// loadJob closes the logger it opened if any later step fails.
func loadJob(path string) (_ *job, err error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(lc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = log.Close()
		}
	}()

	def, err := strategy.LoadFile(cfg.Strategy.File)
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("instruments: %w", err)
	}
	spec, err := catalog.Lookup(cfg.Instrument.Symbol)
	if err != nil {
		return nil, err
	}

	from, to, err := cfg.Data.Range()
	if err != nil {
		return nil, err
	}
	bars, err := market.LoadBarsCSV(cfg.Data.BarsFile, from, to)
	if err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}

	log.Info("job loaded",
		"strategy", def.Name,
		"symbol", spec.Symbol,
		"bars", len(bars),
		"file", cfg.Data.BarsFile)

	return &job{cfg: cfg, log: log, def: def, spec: spec, bars: bars}, nil
}

func (j *job) input(runID string) backtest.Input {
	return backtest.Input{
		RunID:          runID,
		Bars:           j.bars,
		Instrument:     j.spec,
		Strategy:       j.def,
		InitialBalance: j.cfg.Account.Balance,
	}
}

// warnRisk logs advisory policy violations for def. It never blocks a run.
func warnRisk(log *logger.Logger, def strategy.Definition) risk.Decision {
	d := risk.Evaluate(risk.DefaultPolicy(), risk.Intent{
		RiskPercent:    def.Risk.RiskPercent,
		StopPips:       def.Exit.StopLossPips,
		TakeProfitPips: def.Exit.TakeProfitPips,
	})
	for _, v := range d.Violations {
		log.Warn("risk policy", "code", v.Code, "msg", v.Msg)
	}
	return d
}
