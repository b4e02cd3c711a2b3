package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/sweep"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// PrintSummary writes the run's headline numbers as a two-column table.
func PrintSummary(w io.Writer, res *backtest.Result) {
	t := newTable(w, "BACKTEST SUMMARY")

	if res.RunID != "" {
		t.AppendRow(table.Row{"Run", res.RunID})
	}
	t.AppendRows([]table.Row{
		{"Symbol", res.Symbol},
		{"Strategy", res.Strategy},
		{"Period", fmt.Sprintf("%s → %s", res.Start.Format(timeLayout), res.End.Format(timeLayout))},
		{"Bars", res.Bars},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Initial Balance", Money(res.InitialBalance)},
		{"Final Balance", Money(res.FinalBalance)},
		{"Net Profit", Money(res.NetProfit)},
		{"Return", Percent(res.ReturnPct())},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trades", res.TotalTrades},
		{"Winning / Losing", fmt.Sprintf("%d / %d", res.WinningTrades, res.LosingTrades)},
		{"Win Rate", Percent(res.WinRate)},
		{"Gross Profit", Money(res.GrossProfit)},
		{"Gross Loss", Money(res.GrossLoss)},
		{"Profit Factor", fmt.Sprintf("%.2f", res.ProfitFactor)},
		{"Max Drawdown", Percent(res.MaxDrawdown)},
		{"Sharpe Ratio", fmt.Sprintf("%.4f", res.SharpeRatio)},
		{"Execution", res.ExecutionTime.String()},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 24, Align: text.AlignRight},
	})
	t.Render()
}

// PrintSizing shows the lot size a trader would place at balance under the
// strategy's risk settings, rounded to the instrument's lot step.
func PrintSizing(w io.Writer, symbol string, balance, riskPercent, slPips, lots float64) {
	t := newTable(w, "POSITION SIZING")
	t.AppendRows([]table.Row{
		{"Symbol", symbol},
		{"Balance", Money(balance)},
		{"Risk per Trade", Percent(riskPercent)},
		{"Stop Loss", fmt.Sprintf("%g pips", slPips)},
		{"Recommended Lots", fmt.Sprintf("%.2f", lots)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 24, Align: text.AlignRight},
	})
	t.Render()
}

// PrintTrades lists every closed trade. digits controls price precision.
func PrintTrades(w io.Writer, res *backtest.Result, digits int) {
	t := newTable(w, "TRADES")
	t.AppendHeader(table.Row{"#", "Side", "Entry Time", "Entry", "Exit Time", "Exit", "Lots", "Profit", "Reason"})

	for i, tr := range res.Trades {
		t.AppendRow(table.Row{
			i + 1,
			tr.Side.String(),
			tr.EntryTime.Format(timeLayout),
			Price(tr.EntryPrice, digits),
			tr.ExitTime.Format(timeLayout),
			Price(tr.ExitPrice, digits),
			fmt.Sprintf("%.2f", tr.LotSize),
			Money(tr.Profit),
			string(tr.ExitReason),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", Money(res.NetProfit), ""})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
}

// PrintRuns lists stored runs, newest first.
func PrintRuns(w io.Writer, runs []journal.RunRecord) {
	t := newTable(w, "BACKTEST RUNS")
	t.AppendHeader(table.Row{"Run", "Created", "Strategy", "Symbol", "Trades", "Net P/L", "Win Rate", "PF", "Max DD"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.Created.Format(timeLayout),
			r.Strategy,
			r.Symbol,
			r.Trades,
			Money(r.NetPL),
			Percent(r.WinRate),
			fmt.Sprintf("%.2f", r.ProfitFactor),
			Percent(r.MaxDDPct),
		})
	}
	t.Render()
}

// PrintSweep shows one row per parameter combination in the given order.
func PrintSweep(w io.Writer, outcomes []sweep.Outcome) {
	t := newTable(w, "PARAMETER SWEEP")
	t.AppendHeader(table.Row{"SL", "TP", "Risk %", "Trades", "Net P/L", "Win Rate", "PF", "Max DD", "Sharpe"})
	for _, o := range outcomes {
		r := o.Result
		t.AppendRow(table.Row{
			o.StopLossPips,
			o.TakeProfitPips,
			o.RiskPercent,
			r.TotalTrades,
			Money(r.NetProfit),
			Percent(r.WinRate),
			fmt.Sprintf("%.2f", r.ProfitFactor),
			Percent(r.MaxDrawdown),
			fmt.Sprintf("%.4f", r.SharpeRatio),
		})
	}
	t.Render()
}
