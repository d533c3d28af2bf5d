package handlers

import (
	"fmt"
	"net/http"

	"plantdash/internal/charts"
	"plantdash/internal/config"
	"plantdash/internal/dataset"
	"plantdash/internal/kpi"
	"plantdash/internal/rollup"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const lineFilterSessionKey = "lineFilter"

// DashboardHandler serves the single-page KPI dashboard: summary cards plus
// the two monthly charts, recomputed whenever the line filter changes. The
// filter state is a pure input; every change triggers a full recomputation.
type DashboardHandler struct {
	log     *zap.Logger
	source  dataset.Source
	catalog *dataset.Catalog
	kpis    *KpiHandler
}

func NewDashboardHandler(log *zap.Logger, source dataset.Source, catalog *dataset.Catalog) *DashboardHandler {
	return &DashboardHandler{
		log:     log,
		source:  source,
		catalog: catalog,
		kpis:    NewKpiHandler(log, source, catalog),
	}
}

// Page renders the full dashboard shell with the panel inside.
func (h *DashboardHandler) Page(c *gin.Context) {
	line := h.selectedLine(c)
	c.HTML(http.StatusOK, "dashboard.html", h.panelData(line))
}

// Panel renders just the KPI cards and charts fragment; the filter dropdown
// swaps it in place via htmx.
func (h *DashboardHandler) Panel(c *gin.Context) {
	line := h.selectedLine(c)
	c.HTML(http.StatusOK, "panel.html", h.panelData(line))
}

// MonthlyOEE renders the monthly OEE chart page, embedded by the panel.
func (h *DashboardHandler) MonthlyOEE(c *gin.Context) {
	h.renderChart(c, h.monthlyOEEChart(lineParam(c)))
}

// MonthlyTEEP renders the monthly Utilization vs TEEP chart page.
func (h *DashboardHandler) MonthlyTEEP(c *gin.Context) {
	h.renderChart(c, h.monthlyTEEPChart(lineParam(c)))
}

type panelData struct {
	Cards    []kpi.Card
	Lines    []string
	Selected string
}

func (h *DashboardHandler) panelData(line string) panelData {
	return panelData{
		Cards:    append(h.kpis.metricCards("oee", "OEE"), h.kpis.metricCards("teep", "TEEP")...),
		Lines:    h.availableLines(),
		Selected: line,
	}
}

// selectedLine resolves the filter: explicit query first, then the session's
// last choice. The choice is written back so the next visit keeps it.
func (h *DashboardHandler) selectedLine(c *gin.Context) string {
	session := sessions.Default(c)

	line, explicit := c.GetQuery("line")
	if !explicit {
		if saved, ok := session.Get(lineFilterSessionKey).(string); ok {
			return saved
		}
		return ""
	}

	if line == "ALL" {
		line = ""
	}
	session.Set(lineFilterSessionKey, line)
	if err := session.Save(); err != nil {
		h.log.Warn("Failed to persist line filter", zap.Error(err))
	}
	return line
}

// availableLines lists the production lines found in the OEE sheet; on any
// load failure the dropdown simply offers no lines.
func (h *DashboardHandler) availableLines() []string {
	spec, ok := h.catalog.Get("oee")
	if !ok {
		return nil
	}
	table, err := h.source.Load(spec)
	if err != nil {
		h.log.Warn("Could not list production lines", zap.Error(err))
		return nil
	}
	return table.Categories()
}

func (h *DashboardHandler) monthlyOEEChart(line string) charts.Chart {
	title := "Monthly plant OEE"
	if line != "" {
		title = "Monthly OEE - " + line
	}

	table, err := h.loadNamed("oee")
	if err != nil {
		return charts.NoData(title, err.Error())
	}

	rows := rollup.Monthly(table, []string{"OEE"}, line)
	if len(rows) == 0 {
		return charts.NoData(title, "no data to plot")
	}

	oee := rollup.Percent(rows, "OEE")
	targetPct := config.Conf.KPI.ChartTarget * 100
	return charts.MonthlyCombo(title, targetLabel(targetPct), rollup.Labels(rows),
		[]charts.Series{{Name: "OEE", Values: oee}},
		charts.Series{Name: "Trend", Values: oee},
		targetPct)
}

func (h *DashboardHandler) monthlyTEEPChart(line string) charts.Chart {
	title := "Monthly Utilization vs TEEP"
	if line != "" {
		title = "Monthly TEEP - " + line
	}

	table, err := h.loadNamed("teep")
	if err != nil {
		return charts.NoData(title, err.Error())
	}

	rows := rollup.Monthly(table, []string{"Utilizacao", "TEEP"}, line)
	if len(rows) == 0 {
		return charts.NoData(title, "no data to plot")
	}

	teep := rollup.Percent(rows, "TEEP")
	targetPct := config.Conf.KPI.ChartTarget * 100
	return charts.MonthlyCombo(title, targetLabel(targetPct), rollup.Labels(rows),
		[]charts.Series{
			{Name: "Utilization", Values: rollup.Percent(rows, "Utilizacao")},
			{Name: "TEEP", Values: teep},
		},
		charts.Series{Name: "TEEP trend", Values: teep},
		targetPct)
}

func (h *DashboardHandler) loadNamed(name string) (*dataset.Table, error) {
	spec, ok := h.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("dataset not configured: %s", name)
	}
	return h.source.Load(spec)
}

func (h *DashboardHandler) renderChart(c *gin.Context, chart charts.Chart) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render chart", zap.Error(err))
	}
}

func lineParam(c *gin.Context) string {
	line := c.Query("line")
	if line == "ALL" {
		return ""
	}
	return line
}

func targetLabel(pct float64) string {
	return fmt.Sprintf("Target %.0f%%", pct)
}
