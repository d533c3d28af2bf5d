package handlers

import (
	"net/http"
	"sort"

	"plantdash/internal/charts"
	"plantdash/internal/config"
	"plantdash/internal/dataset"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChartsHandler serves the standalone dashboard pages, one chart each.
// Every request re-reads its source spreadsheet through the Source.
type ChartsHandler struct {
	log     *zap.Logger
	source  dataset.Source
	catalog *dataset.Catalog
}

func NewChartsHandler(log *zap.Logger, source dataset.Source, catalog *dataset.Catalog) *ChartsHandler {
	return &ChartsHandler{log: log, source: source, catalog: catalog}
}

// render writes a figure as a full HTML page.
func (h *ChartsHandler) render(c *gin.Context, chart charts.Chart) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render chart", zap.Error(err))
	}
}

// table loads a catalog dataset; on any failure it renders the placeholder
// page with the reason and reports false. No load error kills the request.
func (h *ChartsHandler) table(c *gin.Context, name, title string) (*dataset.Table, bool) {
	spec, ok := h.catalog.Get(name)
	if !ok {
		h.log.Error("Dataset not in catalog", zap.String("dataset", name))
		h.render(c, charts.NoData(title, "dataset not configured: "+name))
		return nil, false
	}

	table, err := h.source.Load(spec)
	if err != nil {
		h.log.Warn("Failed to load dataset",
			zap.String("dataset", name),
			zap.Error(err))
		h.render(c, charts.NoData(title, err.Error()))
		return nil, false
	}
	return table, true
}

// DailyProduction renders total produced parts per day as a line.
func (h *ChartsHandler) DailyProduction(c *gin.Context) {
	const title = "Daily plant production"
	table, ok := h.table(c, "daily_production", title)
	if !ok {
		return
	}

	points := make([]charts.TimePoint, 0, len(table.Rows))
	for _, r := range table.Rows {
		if v, ok := r.Metrics["Total"]; ok {
			points = append(points, charts.TimePoint{Date: r.Date, Value: v})
		}
	}
	if len(points) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}

	chart := charts.TimeLine(title, "Parts",
		map[string][]charts.TimePoint{"Production": points}, []string{"Production"}, "", 0)
	h.render(c, chart)
}

// ProductionByLine renders total production per line as bars.
func (h *ChartsHandler) ProductionByLine(c *gin.Context) {
	const title = "Total production by line"
	table, ok := h.table(c, "production_by_line", title)
	if !ok {
		return
	}

	labels, values := categoryValues(table, "Producao")
	if len(labels) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}
	h.render(c, charts.CategoryBar(title, "Production", labels, values))
}

// ScrapByLine renders OK vs scrap counts per line as stacked bars.
func (h *ChartsHandler) ScrapByLine(c *gin.Context) {
	const title = "OK vs scrap by line"
	table, ok := h.table(c, "scrap_by_line", title)
	if !ok {
		return
	}

	labels := make([]string, 0, len(table.Rows))
	okCounts := make([]float64, 0, len(table.Rows))
	scrap := make([]float64, 0, len(table.Rows))
	for _, r := range table.Rows {
		labels = append(labels, r.Category)
		okCounts = append(okCounts, r.Metrics["OK"])
		scrap = append(scrap, r.Metrics["Refugo"])
	}
	if len(labels) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}

	h.render(c, charts.StackedBar(title, labels, []charts.Series{
		{Name: "OK", Values: okCounts},
		{Name: "Scrap", Values: scrap},
	}))
}

// DailyProductionByLine renders one time series per production line.
func (h *ChartsHandler) DailyProductionByLine(c *gin.Context) {
	const title = "Daily production by line"
	table, ok := h.table(c, "daily_production_by_line", title)
	if !ok {
		return
	}

	order := table.Categories()
	series := make(map[string][]charts.TimePoint, len(order))
	for _, r := range table.Rows {
		if v, ok := r.Metrics["Producao"]; ok {
			series[r.Category] = append(series[r.Category], charts.TimePoint{Date: r.Date, Value: v})
		}
	}
	if len(order) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}

	h.render(c, charts.TimeLine(title, "Parts", series, order, "", 0))
}

// ScrapByCause renders the scrap distribution by cause as a donut.
func (h *ChartsHandler) ScrapByCause(c *gin.Context) {
	const title = "Scrap distribution by cause"
	table, ok := h.table(c, "scrap_by_cause", title)
	if !ok {
		return
	}

	labels, values := categoryValues(table, "Quantidade")
	if len(labels) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}
	h.render(c, charts.DonutPie(title, labels, values))
}

// ShiftEfficiency renders efficiency per line and shift as a heatmap.
func (h *ChartsHandler) ShiftEfficiency(c *gin.Context) {
	const title = "Efficiency by line and shift"
	table, ok := h.table(c, "shift_efficiency", title)
	if !ok {
		return
	}

	lines := table.Categories()
	shifts := distinctLabels(table, "turno")
	lineIdx := indexOf(lines)
	shiftIdx := indexOf(shifts)

	var cells [][3]interface{}
	for _, r := range table.Rows {
		v, ok := r.Metrics["Eficiencia"]
		if !ok {
			continue
		}
		cells = append(cells, [3]interface{}{shiftIdx[r.Labels["turno"]], lineIdx[r.Category], v})
	}
	if len(cells) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}

	h.render(c, charts.Heatmap(title, shifts, lines, cells, 0.8, 1.0))
}

// OEEGauge renders the current plant OEE as a speedometer.
func (h *ChartsHandler) OEEGauge(c *gin.Context) {
	const title = "OEE - Overall Equipment Effectiveness"
	table, ok := h.table(c, "gauge_value", title)
	if !ok {
		return
	}

	if len(table.Rows) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}
	// First row carries the scalar, stored as a fraction.
	pct := table.Rows[0].Metrics["Valor"] * 100
	h.render(c, charts.Gauge(title, "OEE", pct))
}

// OEEDaily renders availability, performance, quality and OEE per day, with
// the dashed target reference.
func (h *ChartsHandler) OEEDaily(c *gin.Context) {
	const title = "Availability, Performance, Quality and OEE - daily"
	table, ok := h.table(c, "oee", title)
	if !ok {
		return
	}

	order := []string{"Disponibilidade", "Performance", "Qualidade", "OEE"}
	series := meltPercent(table, order)
	if len(series) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}

	targetPct := config.Conf.KPI.ChartTarget * 100
	h.render(c, charts.TimeLine(title, "%", series, order, targetLabel(targetPct), targetPct))
}

// TEEPDaily renders utilization and TEEP per day.
func (h *ChartsHandler) TEEPDaily(c *gin.Context) {
	const title = "Utilization vs TEEP - daily"
	table, ok := h.table(c, "teep", title)
	if !ok {
		return
	}

	order := []string{"Utilizacao", "TEEP"}
	series := meltPercent(table, order)
	if len(series) == 0 {
		h.render(c, charts.NoData(title, "no data to plot"))
		return
	}
	h.render(c, charts.TimeLine(title, "%", series, order, "", 0))
}

// categoryValues flattens a one-row-per-category table into aligned label
// and value slices, preserving input order.
func categoryValues(table *dataset.Table, metric string) ([]string, []float64) {
	labels := make([]string, 0, len(table.Rows))
	values := make([]float64, 0, len(table.Rows))
	for _, r := range table.Rows {
		v, ok := r.Metrics[metric]
		if !ok {
			continue
		}
		labels = append(labels, r.Category)
		values = append(values, v)
	}
	return labels, values
}

// meltPercent turns wide metric columns into one percent time series per
// metric, preserving row order within each series.
func meltPercent(table *dataset.Table, metrics []string) map[string][]charts.TimePoint {
	series := make(map[string][]charts.TimePoint, len(metrics))
	for _, r := range table.SortedByDate() {
		for _, m := range metrics {
			if v, ok := r.Metrics[m]; ok {
				series[m] = append(series[m], charts.TimePoint{Date: r.Date, Value: v * 100})
			}
		}
	}
	return series
}

func distinctLabels(table *dataset.Table, key string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range table.Rows {
		label, ok := r.Labels[key]
		if !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
