package report

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/strategy"
	"github.com/rustyeddy/backtester/sweep"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func sampleResult() *backtest.Result {
	return &backtest.Result{
		RunID:          "01HZZTEST",
		Symbol:         "EURUSD",
		Strategy:       "breakout",
		Start:          t0,
		End:            t0.Add(3 * time.Hour),
		Bars:           4,
		InitialBalance: 10000,
		FinalBalance:   10012.345,
		NetProfit:      12.345,
		Summary: metrics.Summary{
			TotalTrades:   2,
			WinningTrades: 1,
			LosingTrades:  1,
			WinRate:       50,
			GrossProfit:   20.5,
			GrossLoss:     8.155,
			ProfitFactor:  2.51,
			MaxDrawdown:   0.08,
			SharpeRatio:   1.2345,
		},
		Trades: []backtest.Trade{
			{ID: "A", Side: strategy.Buy, EntryTime: t0.Add(time.Hour), ExitTime: t0.Add(2 * time.Hour),
				EntryPrice: 1.1005, ExitPrice: 1.0955, LotSize: 0.4, Profit: -8.155, ExitReason: backtest.ExitStopLoss},
			{ID: "B", Side: strategy.Sell, EntryTime: t0.Add(2 * time.Hour), ExitTime: t0.Add(3 * time.Hour),
				EntryPrice: 1.0955, ExitPrice: 1.0855, LotSize: 0.4, Profit: 20.5, ExitReason: backtest.ExitTakeProfit},
		},
		EquityCurve: []backtest.EquityPoint{
			{Time: t0.Add(time.Hour), Equity: 10000, Balance: 10000},
			{Time: t0.Add(2 * time.Hour), Equity: 9991.845, Balance: 9991.845},
			{Time: t0.Add(3 * time.Hour), Equity: 10012.345, Balance: 10012.345},
		},
	}
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"money rounds half away", Money(1.005), "1.01"},
		{"money negative", Money(-2.345), "-2.35"},
		{"money whole", Money(10000), "10000.00"},
		{"price five digits", Price(1.1, 5), "1.10000"},
		{"price three digits", Price(151.2345, 3), "151.235"},
		{"percent", Percent(12.5), "12.50%"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, sampleResult())
	out := buf.String()

	assert.Contains(t, out, "BACKTEST SUMMARY")
	assert.Contains(t, out, "01HZZTEST")
	assert.Contains(t, out, "10012.35")
	assert.Contains(t, out, "1 / 1")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "1.2345")
}

func TestPrintSizing(t *testing.T) {
	t.Parallel()

	lots, err := market.RecommendedLots(market.Instruments["EURUSD"], 10_000, 1, 30)
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSizing(&buf, "EURUSD", 10_000, 1, 30, lots)
	out := buf.String()

	assert.Contains(t, out, "POSITION SIZING")
	assert.Contains(t, out, "10000.00")
	assert.Contains(t, out, "1.00%")
	assert.Contains(t, out, "30 pips")
	assert.Contains(t, out, "0.33")
}

func TestPrintTrades(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintTrades(&buf, sampleResult(), 5)
	out := buf.String()

	assert.Contains(t, out, "1.10050")
	assert.Contains(t, out, "-8.16")
	assert.Contains(t, out, "stop_loss")
	assert.Contains(t, out, "take_profit")
	assert.Contains(t, out, "12.35")
}

func TestPrintRunsAndSweep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintRuns(&buf, []journal.RunRecord{{RunID: "R1", Symbol: "EURUSD", Strategy: "s", Trades: 3, NetPL: -1.5}})
	assert.Contains(t, buf.String(), "R1")
	assert.Contains(t, buf.String(), "-1.50")

	buf.Reset()
	PrintSweep(&buf, []sweep.Outcome{{
		Params: sweep.Params{StopLossPips: 25, TakeProfitPips: 75, RiskPercent: 1.5},
		Result: sampleResult(),
	}})
	assert.Contains(t, buf.String(), "PARAMETER SWEEP")
	assert.Contains(t, buf.String(), "75")
	assert.Contains(t, buf.String(), "12.35")
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "run.xlsx")
	res := sampleResult()
	require.NoError(t, WriteXLSX(path, res, 5))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.Equal(t, []string{summarySheet, tradesSheet, equitySheet}, fx.GetSheetList())

	sym, err := fx.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", sym)

	raw, err := fx.GetCellValue(summarySheet, "B10", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	net, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err)
	assert.InDelta(t, res.NetProfit, net, 1e-9)

	trades, err := fx.GetRows(tradesSheet)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "Exit Reason", trades[0][10])
	assert.Equal(t, "stop_loss", trades[1][10])
	assert.Equal(t, "sell", trades[2][2])

	equity, err := fx.GetRows(equitySheet)
	require.NoError(t, err)
	assert.Len(t, equity, 4)
}

func TestWriteXLSXEmptyRun(t *testing.T) {
	t.Parallel()

	res, err := backtest.Run(backtest.Input{
		Instrument:     market.Instruments["EURUSD"],
		Strategy:       strategy.Default(),
		InitialBalance: 1000,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, res, 5))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	rows, err := fx.GetRows(tradesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
