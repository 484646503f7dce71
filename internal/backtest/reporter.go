package backtest

import (
	"fmt"
	"strings"
)

// maxReportTrades caps the per-trade section of the text report.
const maxReportTrades = 20

// RenderReport formats a result as a human-readable text report.
func RenderReport(r *Result) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 64) + "\n")
	sb.WriteString(fmt.Sprintf("BACKTEST REPORT  %s  [%s]\n", r.Symbol, r.Strategy))
	sb.WriteString(strings.Repeat("=", 64) + "\n")
	sb.WriteString(fmt.Sprintf("Period:        %s .. %s (%s, %d bars)\n",
		r.StartDate, r.EndDate, r.Granularity, r.Bars))
	if len(r.Params) > 0 {
		sb.WriteString(fmt.Sprintf("Params:        %v\n", r.Params))
	}
	sb.WriteString("\n")

	sb.WriteString("PERFORMANCE\n")
	sb.WriteString(strings.Repeat("-", 64) + "\n")
	sb.WriteString(fmt.Sprintf("Initial Cash:    %14.2f\n", r.InitialCash))
	sb.WriteString(fmt.Sprintf("Final Equity:    %14.2f\n", r.FinalEquity))
	sb.WriteString(fmt.Sprintf("Total Return:    %13.2f%%\n", r.TotalReturnPct))
	sb.WriteString(fmt.Sprintf("Annual Return:   %13.2f%%\n", r.AnnualReturnPct))
	if r.SharpeRatio != nil {
		sb.WriteString(fmt.Sprintf("Sharpe Ratio:    %14.3f\n", *r.SharpeRatio))
	} else {
		sb.WriteString("Sharpe Ratio:               n/a\n")
	}
	sb.WriteString(fmt.Sprintf("Max Drawdown:    %13.2f%%\n", r.MaxDrawdownPct))
	sb.WriteString("\n")

	sb.WriteString("TRADES\n")
	sb.WriteString(strings.Repeat("-", 64) + "\n")
	sb.WriteString(fmt.Sprintf("Total: %d  Wins: %d  Losses: %d  Win Rate: %.1f%%\n",
		r.TotalTrades, r.WinningTrades, r.LosingTrades, r.WinRatePct))
	if r.OpenPosition {
		sb.WriteString(fmt.Sprintf("Open Position: %.0f shares\n", r.OpenQuantity))
	}
	sb.WriteString("\n")

	shown := r.Trades
	if len(shown) > maxReportTrades {
		shown = shown[len(shown)-maxReportTrades:]
		sb.WriteString(fmt.Sprintf("(last %d of %d)\n", maxReportTrades, r.TotalTrades))
	}
	for _, t := range shown {
		sb.WriteString(fmt.Sprintf("  %s %s -> %s %s  qty=%s  pnl=%s (%s%%)\n",
			t.EntryTime.Format("2006-01-02"), t.EntryPrice.StringFixed(2),
			t.ExitTime.Format("2006-01-02"), t.ExitPrice.StringFixed(2),
			t.Quantity.StringFixed(0), t.PnL.StringFixed(2), t.ReturnPct.StringFixed(2)))
	}
	if r.StrategySummary != "" {
		sb.WriteString("\n" + r.StrategySummary + "\n")
	}
	sb.WriteString(strings.Repeat("=", 64) + "\n")

	return sb.String()
}
