package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/sweep"
)

// The command tree keeps flag state in package variables, so these tests
// run sequentially.

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	runShowTrades, runJSON = false, false
	sweepSave, sweepTop = false, 0
	sweepSort = string(sweep.ByNetProfit)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--env-file="))
	err := rootCmd.Execute()
	return buf.String(), err
}

const barsCSV = `time,open,high,low,close,volume
2024-01-02T00:00:00Z,1.0990,1.1010,1.0985,1.1005,100
2024-01-02T01:00:00Z,1.1005,1.1010,1.0980,1.0990,120
2024-01-02T02:00:00Z,1.0990,1.0995,1.0950,1.1010,90
2024-01-02T03:00:00Z,1.1010,1.1020,1.1000,1.1015,80
2024-01-02T04:00:00Z,1.1015,1.1130,1.1010,1.1120,150
2024-01-02T05:00:00Z,1.1120,1.1125,1.1090,1.1100,60
`

type workspace struct {
	dir    string
	cfg    string
	db     string
	xlsx   string
	org    string
	prom   string
	trades string
}

func setup(t *testing.T) workspace {
	t.Helper()

	dir := t.TempDir()
	ws := workspace{
		dir:  dir,
		cfg:  filepath.Join(dir, "backtester.yaml"),
		db:   filepath.Join(dir, "runs.db"),
		xlsx: filepath.Join(dir, "reports", "run.xlsx"),
		org:  filepath.Join(dir, "run.org"),
		prom: filepath.Join(dir, "backtester.prom"),
	}
	strat := filepath.Join(dir, "strategy.yaml")

	out, err := execute(t, "config", "init", "-o", ws.cfg, "--strategy", strat)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	bars := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(bars, []byte(barsCSV), 0o644))

	cfg, err := config.LoadFromFile(ws.cfg)
	require.NoError(t, err)
	cfg.Data.BarsFile = bars
	cfg.Journal.DBPath = ws.db
	cfg.Report.XLSXPath = ws.xlsx
	cfg.Report.OrgPath = ws.org
	cfg.Metrics.TextfilePath = ws.prom
	cfg.Log.File = filepath.Join(dir, "backtester.log")
	require.NoError(t, cfg.SaveToFile(ws.cfg))

	return ws
}

func TestCLIWorkflow(t *testing.T) {
	ws := setup(t)

	out, err := execute(t, "config", "validate", "-c", ws.cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "eurusd-breakout")

	out, err = execute(t, "run", "-c", ws.cfg, "--trades")
	require.NoError(t, err)
	assert.Contains(t, out, "BACKTEST SUMMARY")
	assert.Contains(t, out, "POSITION SIZING")
	assert.Contains(t, out, "0.40")
	assert.Contains(t, out, "TRADES")
	assert.Contains(t, out, "take_profit")

	for _, p := range []string{ws.db, ws.xlsx, ws.org, ws.prom} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	db, err := journal.NewSQLite(ws.db)
	require.NoError(t, err)
	runs, err := db.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Len(t, runs, 1)
	runID := runs[0].RunID

	out, err = execute(t, "list", "--db", ws.db)
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, err = execute(t, "show", runID, "--db", ws.db)
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      "+runID)

	_, err = execute(t, "show", "NOPE", "--db", ws.db)
	assert.ErrorIs(t, err, journal.ErrRunNotFound)

	out, err = execute(t, "sweep", "-c", ws.cfg, "--sl", "20,50", "--save", "--sort", "sharpe")
	require.NoError(t, err)
	assert.Contains(t, out, "PARAMETER SWEEP")

	db, err = journal.NewSQLite(ws.db)
	require.NoError(t, err)
	runs, err = db.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.Len(t, runs, 3)
}

func TestRunJSON(t *testing.T) {
	ws := setup(t)

	out, err := execute(t, "run", "-c", ws.cfg, "--json")
	require.NoError(t, err)

	var res struct {
		RunID       string           `json:"run_id"`
		TotalTrades int              `json:"total_trades"`
		Trades      []map[string]any `json:"trades"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, len(res.Trades), res.TotalTrades)
	assert.NotZero(t, res.TotalTrades)
}

func TestSweepBadSortKey(t *testing.T) {
	ws := setup(t)

	_, err := execute(t, "sweep", "-c", ws.cfg, "--sort", "luck")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort key")
}

func TestConfigValidateMissingFile(t *testing.T) {
	_, err := execute(t, "config", "validate", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "backtester version "))
}
