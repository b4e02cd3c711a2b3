package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

var runOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"orDash": func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	},
	"trade": FormatTradeOrg,
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

type runOrgView struct {
	RunRecord
	TradeList []TradeRecord
}

// FormatRunOrg renders a run as an Org-mode heading with a PROPERTIES drawer
// followed by one subheading per trade.
func FormatRunOrg(run RunRecord, trades []TradeRecord) (string, error) {
	var buf bytes.Buffer
	if err := runOrg.Execute(&buf, runOrgView{RunRecord: run, TradeList: trades}); err != nil {
		return "", fmt.Errorf("render org report: %w", err)
	}
	return buf.String(), nil
}

func WriteRunOrg(path string, run RunRecord, trades []TradeRecord) error {
	s, err := FormatRunOrg(run, trades)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* BACKTEST: {{orDash .Strategy}} {{.Symbol}} {{orDash .Timeframe}}
:PROPERTIES:
:RUN_ID:      {{orDash .RunID}}
:STRATEGY:    {{orDash .Strategy}}
:TIMEFRAME:   {{orDash .Timeframe}}
:INSTRUMENT:  {{.Symbol}}
:DATASET:     {{orDash .Dataset}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{printf "%.2f" .ProfitFactor}}
:SHARPE:      {{printf "%.4f" .Sharpe}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter        | Value |
|------------------+-------|
| Stop (pips)      | {{printf "%.1f" .StopPips}} |
| Target (pips)    | {{printf "%.1f" .TakeProfitPips}} |
| R:R              | {{printf "%.2f" .RR}} |
| Risk per Trade % | {{printf "%.2f" .RiskPct}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" .WinRate}}%*
- Profit Factor:    *{{printf "%.2f" .ProfitFactor}}*
- Sharpe:           *{{printf "%.4f" .Sharpe}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
{{- if .TradeList }}

** Trades
{{- range .TradeList }}
{{ trade . }}
{{- end }}
{{- end }}
`

// FormatTradeOrg renders one trade as a third-level heading whose facts live
// in a PROPERTIES drawer.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** Trade %d: %s %s\n", t.Seq, strings.ToUpper(t.Side), shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	if t.TradeID != "" {
		fmt.Fprintf(&b, ":TRADE_ID:    %s\n", t.TradeID)
	}
	fmt.Fprintf(&b, ":SIDE:        %s\n", t.Side)
	fmt.Fprintf(&b, ":LOTS:        %.2f\n", t.LotSize)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE:  %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":ENTRY_TIME:  %s\n", t.EntryTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":EXIT_TIME:   %s\n", t.ExitTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":PIPS:        %.4f\n", t.Pips)
	fmt.Fprintf(&b, ":PROFIT:      %.2f\n", t.Profit)
	fmt.Fprintf(&b, ":REASON:      %s\n", t.Reason)
	b.WriteString(":END:")
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
