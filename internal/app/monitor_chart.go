package app

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/relabs-tech/motion_monitor/internal/stream"
)

// handleChart renders one line chart per track showing the stored window
// of every axis. The page is self-contained HTML, handy for a quick look
// at what the filter is doing without the live dashboard.
func (m *Monitor) handleChart(w http.ResponseWriter, r *http.Request) {
	page := components.NewPage()
	for _, ts := range m.router.Snapshot() {
		page.AddCharts(trackLineChart(ts))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		log.Printf("monitor: chart render error: %v", err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("monitor: chart write error: %v", err)
	}
}

func trackLineChart(ts stream.TrackSnapshot) *charts.Line {
	line := charts.NewLine()

	filterState := "filter off"
	if ts.Filter.Enabled {
		filterState = fmt.Sprintf("filter on, smoothing=%.2f q=%.0f",
			ts.Filter.SmoothingFactor, ts.Filter.QuantizationFactor)
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "motion monitor",
			Width:     "1100px",
			Height:    "320px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    ts.Sensor,
			Subtitle: filterState,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	maxLen := 0
	for _, ax := range ts.Axes {
		if len(ax.Window) > maxLen {
			maxLen = len(ax.Window)
		}
	}
	xs := make([]int, maxLen)
	for i := range xs {
		xs[i] = i
	}
	line.SetXAxis(xs)

	for _, ax := range ts.Axes {
		data := make([]opts.LineData, 0, len(ax.Window))
		for _, v := range ax.Window {
			data = append(data, opts.LineData{Value: v})
		}
		line.AddSeries(fmt.Sprintf("%s (peaks %d)", ax.Name, ax.PeakCount), data)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line
}
