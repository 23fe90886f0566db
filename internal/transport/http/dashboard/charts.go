package dashboard

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"tradepilot/internal/ledger"
)

const chartHistoryLimit = 200

// renderCharts serves an HTML page with cumulative P/L and per-trade bars
// over the recent closed trades.
func renderCharts(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := store.RecentClosedTrades(c.Request.Context(), chartHistoryLimit)
		if err != nil {
			c.String(http.StatusInternalServerError, "chart data: %v", err)
			return
		}
		// Oldest first so the cumulative line reads left to right.
		sort.Slice(trades, func(i, j int) bool { return trades[i].ClosedAt.Before(trades[j].ClosedAt) })

		page := components.NewPage()
		page.SetLayout(components.PageFlexLayout)
		page.AddCharts(buildCumulativeLine(trades), buildPerTradeBars(trades))

		c.Header("Content-Type", "text/html; charset=utf-8")
		if err := page.Render(c.Writer); err != nil {
			c.String(http.StatusInternalServerError, "chart render: %v", err)
		}
	}
}

func buildCumulativeLine(trades []ledger.Trade) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cumulative P/L (USDT)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	xAxis := make([]string, 0, len(trades))
	data := make([]opts.LineData, 0, len(trades))
	running := 0.0
	for i, t := range trades {
		running += t.PnL
		xAxis = append(xAxis, tradeLabel(i, t))
		data = append(data, opts.LineData{Value: running})
	}
	line.SetXAxis(xAxis)
	line.AddSeries("cumulative", data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	return line
}

func buildPerTradeBars(trades []ledger.Trade) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "P/L per trade (USDT)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	xAxis := make([]string, 0, len(trades))
	data := make([]opts.BarData, 0, len(trades))
	for i, t := range trades {
		xAxis = append(xAxis, tradeLabel(i, t))
		data = append(data, opts.BarData{Value: t.PnL})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("pnl", data)
	return bar
}

func tradeLabel(i int, t ledger.Trade) string {
	if t.ClosedAt.IsZero() {
		return fmt.Sprintf("#%d", i+1)
	}
	return fmt.Sprintf("%s %s", t.ClosedAt.Format("01-02 15:04"), t.Direction)
}
