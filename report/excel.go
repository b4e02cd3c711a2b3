package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/backtester/backtest"
)

const (
	summarySheet = "Summary"
	tradesSheet  = "Trades"
	equitySheet  = "Equity"
)

type styles struct {
	header   int
	money    int
	price    int
	datetime int
}

func newStyles(fx *excelize.File, digits int) (styles, error) {
	var s styles
	var err error

	s.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return s, err
	}

	s.money, err = fx.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return s, err
	}

	priceFmt := "0"
	if digits > 0 {
		priceFmt = "0." + fmt.Sprintf("%0*d", digits, 0)
	}
	s.price, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &priceFmt})
	if err != nil {
		return s, err
	}

	dt := "yyyy-mm-dd hh:mm"
	s.datetime, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &dt})
	return s, err
}

// WriteXLSX saves res as a workbook with Summary, Trades and Equity sheets.
// digits sets the price format.
func WriteXLSX(path string, res *backtest.Result, digits int) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	for _, name := range []string{tradesSheet, equitySheet} {
		if _, err := fx.NewSheet(name); err != nil {
			return err
		}
	}

	st, err := newStyles(fx, digits)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	if err := writeSummary(fx, res, st); err != nil {
		return err
	}
	if err := writeTrades(fx, res, st); err != nil {
		return err
	}
	if err := writeEquity(fx, res, st); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func writeHeader(fx *excelize.File, sheet string, st styles, cols []string) error {
	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := fx.SetSheetRow(sheet, cell, &cols); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := fx.SetCellStyle(sheet, cell, last, st.header); err != nil {
		return err
	}
	return fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(fx *excelize.File, res *backtest.Result, st styles) error {
	rows := [][]any{
		{"Run", res.RunID},
		{"Symbol", res.Symbol},
		{"Strategy", res.Strategy},
		{"Start", res.Start},
		{"End", res.End},
		{"Bars", res.Bars},
		{"Initial Balance", res.InitialBalance},
		{"Final Balance", res.FinalBalance},
		{"Net Profit", res.NetProfit},
		{"Return %", res.ReturnPct()},
		{"Total Trades", res.TotalTrades},
		{"Winning Trades", res.WinningTrades},
		{"Losing Trades", res.LosingTrades},
		{"Win Rate %", res.WinRate},
		{"Gross Profit", res.GrossProfit},
		{"Gross Loss", res.GrossLoss},
		{"Profit Factor", res.ProfitFactor},
		{"Max Drawdown %", res.MaxDrawdown},
		{"Sharpe Ratio", res.SharpeRatio},
		{"Execution ms", res.ExecutionMS},
	}

	if err := writeHeader(fx, summarySheet, st, []string{"Metric", "Value"}); err != nil {
		return err
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := fx.SetSheetRow(summarySheet, cell, &r); err != nil {
			return err
		}
	}
	for _, r := range []int{5, 6} {
		cell, _ := excelize.CoordinatesToCellName(2, r)
		if err := fx.SetCellStyle(summarySheet, cell, cell, st.datetime); err != nil {
			return err
		}
	}
	for _, r := range []int{8, 9, 10, 16, 17} {
		cell, _ := excelize.CoordinatesToCellName(2, r)
		if err := fx.SetCellStyle(summarySheet, cell, cell, st.money); err != nil {
			return err
		}
	}
	return fx.SetColWidth(summarySheet, "A", "B", 20)
}

func writeTrades(fx *excelize.File, res *backtest.Result, st styles) error {
	cols := []string{"#", "ID", "Side", "Entry Time", "Entry Price", "Exit Time", "Exit Price", "Lots", "Pips", "Profit", "Exit Reason"}
	if err := writeHeader(fx, tradesSheet, st, cols); err != nil {
		return err
	}

	for i, t := range res.Trades {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		vals := []any{
			i + 1, t.ID, t.Side.String(), t.EntryTime, t.EntryPrice,
			t.ExitTime, t.ExitPrice, t.LotSize, t.Pips, t.Profit, string(t.ExitReason),
		}
		if err := fx.SetSheetRow(tradesSheet, cell, &vals); err != nil {
			return err
		}
	}

	if n := len(res.Trades); n > 0 {
		last := n + 1
		for col, style := range map[string]int{"D": st.datetime, "F": st.datetime, "E": st.price, "G": st.price, "J": st.money} {
			if err := fx.SetCellStyle(tradesSheet, fmt.Sprintf("%s2", col), fmt.Sprintf("%s%d", col, last), style); err != nil {
				return err
			}
		}
	}
	if err := fx.SetColWidth(tradesSheet, "B", "B", 28); err != nil {
		return err
	}
	return fx.SetColWidth(tradesSheet, "D", "F", 18)
}

func writeEquity(fx *excelize.File, res *backtest.Result, st styles) error {
	if err := writeHeader(fx, equitySheet, st, []string{"Time", "Equity", "Balance"}); err != nil {
		return err
	}

	for i, p := range res.EquityCurve {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		vals := []any{p.Time, p.Equity, p.Balance}
		if err := fx.SetSheetRow(equitySheet, cell, &vals); err != nil {
			return err
		}
	}

	if n := len(res.EquityCurve); n > 0 {
		last := n + 1
		if err := fx.SetCellStyle(equitySheet, "A2", fmt.Sprintf("A%d", last), st.datetime); err != nil {
			return err
		}
		if err := fx.SetCellStyle(equitySheet, "B2", fmt.Sprintf("C%d", last), st.money); err != nil {
			return err
		}
	}
	return fx.SetColWidth(equitySheet, "A", "C", 18)
}
