package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
)

func sampleResult() *backtest.Result {
	res := &backtest.Result{
		Symbol:        "EURUSD",
		Strategy:      "breakout",
		FinalBalance:  10050,
		NetProfit:     50,
		ExecutionTime: 20 * time.Millisecond,
		Trades: []backtest.Trade{
			{ExitReason: backtest.ExitStopLoss},
			{ExitReason: backtest.ExitTakeProfit},
			{ExitReason: backtest.ExitTakeProfit},
		},
	}
	return res
}

func TestObserveRun(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRun(sampleResult())
	m.ObserveRun(sampleResult())
	m.ObserveFailure("GBPUSD")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("EURUSD", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("GBPUSD", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.tradesTotal.WithLabelValues("EURUSD", "take_profit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tradesTotal.WithLabelValues("EURUSD", "stop_loss")))
	assert.Equal(t, 10050.0, testutil.ToFloat64(m.finalBalance.WithLabelValues("EURUSD", "breakout")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestRegistriesAreIndependent(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.ObserveRun(sampleResult())

	assert.Equal(t, 1.0, testutil.ToFloat64(a.runsTotal.WithLabelValues("EURUSD", "ok")))
	assert.Equal(t, 0, testutil.CollectAndCount(b.runsTotal))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRun(sampleResult())

	path := filepath.Join(t.TempDir(), "backtester.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `backtester_runs_total{status="ok",symbol="EURUSD"} 1`)
	assert.Contains(t, out, `backtester_trades_total{reason="take_profit",symbol="EURUSD"} 2`)
	assert.Contains(t, out, "# TYPE backtester_run_duration_seconds histogram")
}
