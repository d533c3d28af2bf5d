// Package charts assembles the go-echarts figures served by the dashboard
// handlers. Everything here is presentation only: the numbers arrive already
// aggregated.
package charts

import (
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Chart is the common surface the handlers render: every go-echarts figure
// can write itself as a full HTML page.
type Chart interface {
	Render(w io.Writer) error
}

// Series pairs a display name with its values, index-aligned to the x-axis
// labels.
type Series struct {
	Name   string
	Values []float64
}

// TimePoint is one (date, value) sample for a time-axis line.
type TimePoint struct {
	Date  time.Time
	Value float64
}

// MonthlyCombo builds the monthly rollup figure: grouped bars per series, a
// trend line over the last bar series, and a dashed constant target line.
// The y-axis is fixed to 0-100 percent.
func MonthlyCombo(title, targetName string, labels []string, bars []Series, trend Series, targetPct float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Month"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Min: 0, Max: 100}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(labels)
	for _, s := range bars {
		bar.AddSeries(s.Name, barData(s.Values))
	}

	line := charts.NewLine()
	line.SetXAxis(labels)
	line.AddSeries(trend.Name, lineData(trend.Values),
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(true)}))
	line.AddSeries(targetName, lineData(constant(targetPct, len(labels))),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))

	bar.Overlap(line)
	return bar
}

// TimeLine builds a multi-series line over a time axis, one point per
// observation date. targetPct > 0 adds a dashed reference line spanning the
// series.
func TimeLine(title, yName string, series map[string][]TimePoint, order []string, targetName string, targetPct float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName, Scale: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	var first, last time.Time
	for _, name := range order {
		points := series[name]
		items := make([]opts.LineData, 0, len(points))
		for _, p := range points {
			items = append(items, opts.LineData{Value: []interface{}{p.Date, p.Value}})
			if first.IsZero() || p.Date.Before(first) {
				first = p.Date
			}
			if p.Date.After(last) {
				last = p.Date
			}
		}
		line.AddSeries(name, items, charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	}

	if targetPct > 0 && !first.IsZero() {
		line.AddSeries(targetName, []opts.LineData{
			{Value: []interface{}{first, targetPct}},
			{Value: []interface{}{last, targetPct}},
		}, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	}
	return line
}

// CategoryBar builds a simple bar chart over category labels.
func CategoryBar(title, seriesName string, labels []string, values []float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries(seriesName, barData(values))
	return bar
}

// StackedBar builds one stacked bar chart, e.g. OK vs scrap counts per line.
func StackedBar(title string, labels []string, series []Series) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	for _, s := range series {
		bar.AddSeries(s.Name, barData(s.Values))
	}
	bar.SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
	return bar
}

// DonutPie builds a donut distribution chart, e.g. scrap counts by cause.
func DonutPie(title string, labels []string, values []float64) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	items := make([]opts.PieData, 0, len(labels))
	for i, label := range labels {
		items = append(items, opts.PieData{Name: label, Value: values[i]})
	}
	pie.AddSeries(title, items).SetSeriesOptions(
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
	)
	return pie
}

// Heatmap builds an x-by-y grid colored by value, e.g. efficiency per line
// and shift. cells are (xIndex, yIndex, value) triples.
func Heatmap(title string, xLabels, yLabels []string, cells [][3]interface{}, min, max float32) *charts.HeatMap {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xLabels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        min,
			Max:        max,
			InRange:    &opts.VisualMapInRange{Color: []string{"#ff4d4f", "#faad14", "#52c41a"}},
		}),
	)

	items := make([]opts.HeatMapData, 0, len(cells))
	for _, c := range cells {
		items = append(items, opts.HeatMapData{Value: c})
	}
	hm.AddSeries("Efficiency", items)
	return hm
}

// Gauge builds the single-value speedometer, in percent.
func Gauge(title, seriesName string, pct float64) *charts.Gauge {
	gauge := charts.NewGauge()
	gauge.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	gauge.AddSeries(seriesName, []opts.GaugeData{{Name: seriesName, Value: pct}})
	return gauge
}

// NoData builds the placeholder figure rendered when a load fails or an
// aggregation comes back empty. The reason shows as the subtitle.
func NoData(title, reason string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: reason}),
	)
	return bar
}

func barData(values []float64) []opts.BarData {
	items := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.BarData{Value: v})
	}
	return items
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.LineData{Value: v})
	}
	return items
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
