// Package monitoring exports run statistics in the Prometheus text format.
// Backtests are batch jobs, so metrics are written to a textfile for the
// node_exporter textfile collector rather than served over HTTP.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rustyeddy/backtester/backtest"
)

// Metrics owns a private registry so several runs in one process (tests,
// sweeps) never collide on the global one.
type Metrics struct {
	reg *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	tradesTotal  *prometheus.CounterVec
	runDuration  prometheus.Histogram
	finalBalance *prometheus.GaugeVec
	netProfit    *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtester_runs_total",
				Help: "Backtest runs by outcome",
			},
			[]string{"symbol", "status"},
		),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtester_trades_total",
				Help: "Closed trades by exit reason",
			},
			[]string{"symbol", "reason"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "backtester_run_duration_seconds",
				Help:    "Wall time of a single backtest run",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		finalBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "backtester_final_balance",
				Help: "Balance at the end of the latest run",
			},
			[]string{"symbol", "strategy"},
		),
		netProfit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "backtester_net_profit",
				Help: "Net profit of the latest run",
			},
			[]string{"symbol", "strategy"},
		),
	}
	m.reg.MustRegister(m.runsTotal, m.tradesTotal, m.runDuration, m.finalBalance, m.netProfit)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(res *backtest.Result) {
	m.runsTotal.WithLabelValues(res.Symbol, "ok").Inc()
	m.runDuration.Observe(res.ExecutionTime.Seconds())
	for _, t := range res.Trades {
		m.tradesTotal.WithLabelValues(res.Symbol, string(t.ExitReason)).Inc()
	}
	m.finalBalance.WithLabelValues(res.Symbol, res.Strategy).Set(res.FinalBalance)
	m.netProfit.WithLabelValues(res.Symbol, res.Strategy).Set(res.NetProfit)
}

// ObserveFailure counts a run rejected before or during simulation.
func (m *Metrics) ObserveFailure(symbol string) {
	m.runsTotal.WithLabelValues(symbol, "error").Inc()
}

// WriteTextfile atomically replaces path with the current metric values.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
