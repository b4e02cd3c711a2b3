package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/monitoring"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one backtest from the configuration file",
	Long: `Run loads the strategy, instrument and bars named in the configuration,
replays them and prints a summary.

Depending on the configuration the run is also journaled (SQLite or CSV),
written to an Excel workbook and/or Org file, and its metrics exported as a
Prometheus textfile.

Example:
  backtester run -c backtester.yaml --trades`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runShowTrades bool
	runJSON       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runShowTrades, "trades", false, "print every trade")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full result as JSON instead of tables")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := loadJob(cfgFile)
	if err != nil {
		return err
	}
	defer j.log.Close()
	warnRisk(j.log, j.def)

	runID := id.New()
	log := j.log.Run(runID)
	mon := monitoring.New()

	res, err := backtest.Run(j.input(runID),
		backtest.WithLogger(j.log),
		backtest.WithTradeIDs(id.New))
	if err != nil {
		mon.ObserveFailure(j.spec.Symbol)
		_ = writeMetrics(j, mon)
		return fmt.Errorf("backtest: %w", err)
	}
	mon.ObserveRun(res)

	log.Info("backtest complete",
		"trades", res.TotalTrades,
		"net_profit", res.NetProfit,
		"elapsed", res.ExecutionTime)

	if err := persist(ctx, j, res); err != nil {
		return err
	}
	if err := writeMetrics(j, mon); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	report.PrintSummary(out, res)
	bal, def := j.cfg.Account.Balance, j.def
	if lots, err := market.RecommendedLots(j.spec, bal, def.Risk.RiskPercent, def.Exit.StopLossPips); err != nil {
		j.log.Warn("recommended size", "error", err)
	} else {
		report.PrintSizing(out, j.spec.Symbol, bal, def.Risk.RiskPercent, def.Exit.StopLossPips, lots)
	}
	if runShowTrades {
		report.PrintTrades(out, res, j.spec.Digits)
	}
	return nil
}

// persist journals res and writes the configured reports.
func persist(ctx context.Context, j *job, res *backtest.Result) error {
	cfg := j.cfg
	rec, err := journal.NewRunRecord(res, j.def, cfg.Data.BarsFile, nowUTC())
	if err != nil {
		return err
	}
	trades := journal.TradeRecords(res)

	switch cfg.Journal.Type {
	case "sqlite":
		db, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		if err := db.RecordRun(ctx, rec, trades, journal.EquitySnapshots(res)); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	case "csv":
		cj, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return fmt.Errorf("open csv journal: %w", err)
		}
		if err := journal.Write(cj, res); err != nil {
			_ = cj.Close()
			return fmt.Errorf("journal: %w", err)
		}
		if err := cj.Close(); err != nil {
			return err
		}
	}
	if cfg.Journal.Type != "" && cfg.Journal.Type != "none" {
		j.log.Info("run journaled", "type", cfg.Journal.Type, "run_id", res.RunID)
	}

	if p := cfg.Report.XLSXPath; p != "" {
		if err := report.WriteXLSX(p, res, j.spec.Digits); err != nil {
			return fmt.Errorf("xlsx report: %w", err)
		}
		j.log.Info("excel report written", "path", p)
	}
	if p := cfg.Report.OrgPath; p != "" {
		if err := journal.WriteRunOrg(p, rec, trades); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
		j.log.Info("org report written", "path", p)
	}
	return nil
}

var nowUTC = func() time.Time { return time.Now().UTC() }

func writeMetrics(j *job, mon *monitoring.Metrics) error {
	p := j.cfg.Metrics.TextfilePath
	if p == "" {
		return nil
	}
	if err := mon.WriteTextfile(p); err != nil {
		return fmt.Errorf("metrics textfile: %w", err)
	}
	return nil
}
