// Package report renders a finished backtest's equity curve and trade
// ledger to disk, using go-echarts (SetGlobalOptions/AddSeries/Render)
// applied here to a single equity line instead of a kline-plus-overlay
// chart, since a backtest run has no live candle chart to draw.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/shopspring/decimal"

	"tradeengine/internal/portfolio"
	"tradeengine/internal/store"
	"tradeengine/internal/trade"
)

// EquityChart renders the equity curve returned by a backtest run as a
// standalone HTML page.
func EquityChart(curve []portfolio.EquityPoint, symbol string, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  "1200px",
			Height: "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s equity curve", symbol),
			Subtitle: fmt.Sprintf("%d samples", len(curve)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	xAxis := make([]string, len(curve))
	equity := make([]opts.LineData, len(curve))
	drawdown := make([]opts.LineData, len(curve))
	for i, p := range curve {
		xAxis[i] = time.UnixMilli(p.Timestamp).UTC().Format("2006-01-02 15:04")
		eq, _ := p.Equity.Float64()
		equity[i] = opts.LineData{Value: eq}
		drawdown[i] = opts.LineData{Value: p.Drawdown * 100}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Equity", equity, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.AddSeries("Drawdown %", drawdown, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	return line.Render(w)
}

// TradeLedgerCSV writes every trade for symbol, most recent first, to a
// CSV file; a trade ledger is tabular data a spreadsheet tool should
// open directly rather than a rendered chart.
func TradeLedgerCSV(ctx context.Context, trades store.TradeStore, symbol string, w io.Writer) error {
	history, err := trades.GetTradeHistory(ctx, symbol, math.MaxInt32)
	if err != nil {
		return fmt.Errorf("report: trade history: %w", err)
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"id", "symbol", "direction", "entry_time", "entry_price", "size", "stop_loss", "take_profit", "exit_time", "exit_price", "exit_reason", "pnl", "pnl_percent", "status"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range history {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Symbol,
			string(t.Direction),
			strconv.FormatInt(t.EntryTime, 10),
			t.EntryPrice.String(),
			t.Size.String(),
			t.StopLoss.String(),
			t.TakeProfit.String(),
			formatOptionalInt(t.ExitTime),
			formatOptionalDecimal(t.ExitPrice),
			formatOptionalReason(t.ExitReason),
			formatOptionalDecimal(t.PnL),
			formatOptionalDecimal(t.PnLPercent),
			string(t.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

func formatOptionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatOptionalDecimal(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func formatOptionalReason(v *trade.ExitReason) string {
	if v == nil {
		return ""
	}
	return string(*v)
}
