package handlers

import (
	"net/http"

	"plantdash/internal/config"
	"plantdash/internal/dataset"
	"plantdash/internal/kpi"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// KpiHandler serves the KPI summary consumed by the card renderers.
type KpiHandler struct {
	log     *zap.Logger
	source  dataset.Source
	catalog *dataset.Catalog
}

func NewKpiHandler(log *zap.Logger, source dataset.Source, catalog *dataset.Catalog) *KpiHandler {
	return &KpiHandler{log: log, source: source, catalog: catalog}
}

// Summary returns the four cards: OEE and TEEP, one per role. Any load
// failure degrades to zeroed cards instead of an error response, keeping the
// endpoint renderable no matter the state of the spreadsheets.
func (h *KpiHandler) Summary(c *gin.Context) {
	cards := append(h.metricCards("oee", "OEE"), h.metricCards("teep", "TEEP")...)
	c.JSON(http.StatusOK, gin.H{"kpis": cards})
}

func (h *KpiHandler) metricCards(datasetName, metric string) []kpi.Card {
	cfg := config.Conf
	opt := kpi.Options{
		Metric:       metric,
		Target:       cfg.KPI.Target,
		Roles:        cfg.KPI.Roles,
		RoleMap:      cfg.KPI.RoleMap,
		DecimalComma: cfg.Display.DecimalComma,
	}

	spec, ok := h.catalog.Get(datasetName)
	if !ok {
		h.log.Error("Dataset not in catalog", zap.String("dataset", datasetName))
		return kpi.Zeroed(opt)
	}

	table, err := h.source.Load(spec)
	if err != nil {
		h.log.Warn("KPI falling back to zeroed cards",
			zap.String("dataset", datasetName),
			zap.Error(err))
		return kpi.Zeroed(opt)
	}
	return kpi.Compute(table, opt)
}
