package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/monitoring"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/report"
	"github.com/rustyeddy/backtester/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Backtest a grid of stop, target and risk settings",
	Long: `Sweep runs the configured strategy once per combination of stop loss,
take profit and risk percent. Runs are independent and execute in parallel.

Values come from strategy.sweep in the configuration; flags replace them.

Example:
  backtester sweep --sl 20,30,50 --tp 40,60,100 --sort sharpe --top 10`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	sweepSL       []float64
	sweepTP       []float64
	sweepRisk     []float64
	sweepParallel int
	sweepSort     string
	sweepTop      int
	sweepSave     bool
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().Float64SliceVar(&sweepSL, "sl", nil, "stop loss pips to try")
	sweepCmd.Flags().Float64SliceVar(&sweepTP, "tp", nil, "take profit pips to try")
	sweepCmd.Flags().Float64SliceVar(&sweepRisk, "risk", nil, "risk percents to try")
	sweepCmd.Flags().IntVarP(&sweepParallel, "parallel", "p", 0, "concurrent runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().StringVar(&sweepSort, "sort", string(sweep.ByNetProfit), "rank by net_profit, profit_factor, sharpe, win_rate or max_drawdown")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 0, "show only the best N (0 = all)")
	sweepCmd.Flags().BoolVar(&sweepSave, "save", false, "journal every run to the SQLite db")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	key := sweep.Key(sweepSort)
	if err := sweep.Rank(nil, key); err != nil {
		return err
	}

	j, err := loadJob(cfgFile)
	if err != nil {
		return err
	}
	defer j.log.Close()
	if sweepSave && j.cfg.Journal.Type != "sqlite" {
		return fmt.Errorf("--save needs journal.type sqlite")
	}

	grid := j.cfg.Strategy.Sweep
	if len(sweepSL) > 0 {
		grid.StopLossPips = sweepSL
	}
	if len(sweepTP) > 0 {
		grid.TakeProfitPips = sweepTP
	}
	if len(sweepRisk) > 0 {
		grid.RiskPercent = sweepRisk
	}

	mon := monitoring.New()
	combos := grid.Combinations(j.def)
	j.log.Info("sweep starting", "combinations", len(combos))

	outcomes, err := sweep.Run(ctx, j.input(""), grid, sweep.Options{
		Parallelism: sweepParallel,
		Engine:      backtest.NewEngine(backtest.WithLogger(j.log), backtest.WithTradeIDs(id.New)),
		RunID:       func(sweep.Params) string { return id.New() },
		OnResult: func(o sweep.Outcome) {
			mon.ObserveRun(o.Result)
			j.log.Debug("sweep run finished",
				"run_id", o.Result.RunID,
				"sl", o.StopLossPips,
				"tp", o.TakeProfitPips,
				"risk", o.RiskPercent,
				"net_profit", o.Result.NetProfit)
		},
	})
	if err != nil {
		mon.ObserveFailure(j.spec.Symbol)
		_ = writeMetrics(j, mon)
		return fmt.Errorf("sweep: %w", err)
	}

	if sweepSave {
		if err := saveSweep(ctx, j, outcomes); err != nil {
			return err
		}
	}
	if err := writeMetrics(j, mon); err != nil {
		return err
	}

	if err := sweep.Rank(outcomes, key); err != nil {
		return err
	}
	if sweepTop > 0 && sweepTop < len(outcomes) {
		outcomes = outcomes[:sweepTop]
	}
	report.PrintSweep(cmd.OutOrStdout(), outcomes)
	return nil
}

func saveSweep(ctx context.Context, j *job, outcomes []sweep.Outcome) error {
	db, err := journal.NewSQLite(j.cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	for _, o := range outcomes {
		rec, err := journal.NewRunRecord(o.Result, o.Apply(j.def), j.cfg.Data.BarsFile, nowUTC())
		if err != nil {
			return err
		}
		if err := db.RecordRun(ctx, rec, journal.TradeRecords(o.Result), journal.EquitySnapshots(o.Result)); err != nil {
			return fmt.Errorf("journal %s: %w", rec.RunID, err)
		}
	}
	j.log.Info("sweep journaled", "runs", len(outcomes), "db", j.cfg.Journal.DBPath)
	return nil
}
