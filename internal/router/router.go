package router

import (
	"net/http"
	"time"

	"plantdash/internal/config"
	"plantdash/internal/dataset"
	"plantdash/internal/handlers"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

// Setup wires the middleware stack and every dashboard route.
func Setup(log *zap.Logger, source dataset.Source, catalog *dataset.Catalog) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("plantdash", store))

	secureMiddleware := secure.New(secure.Options{
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	router.LoadHTMLGlob("templates/*.html")

	// Handlers and routes
	chartsHandler := handlers.NewChartsHandler(log, source, catalog)
	kpiHandler := handlers.NewKpiHandler(log, source, catalog)
	dashboardHandler := handlers.NewDashboardHandler(log, source, catalog)

	// Every chart request re-reads its spreadsheet, so keep scrapers from
	// hammering the endpoints.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 60,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	dashboards := router.Group("/dashboards", limiter)
	{
		dashboards.GET("/daily-production", chartsHandler.DailyProduction)
		dashboards.GET("/production-by-line", chartsHandler.ProductionByLine)
		dashboards.GET("/scrap-by-line", chartsHandler.ScrapByLine)
		dashboards.GET("/daily-production-by-line", chartsHandler.DailyProductionByLine)
		dashboards.GET("/scrap-by-cause", chartsHandler.ScrapByCause)
		dashboards.GET("/shift-efficiency", chartsHandler.ShiftEfficiency)
		dashboards.GET("/oee-gauge", chartsHandler.OEEGauge)
		dashboards.GET("/oee-daily", chartsHandler.OEEDaily)
		dashboards.GET("/teep-daily", chartsHandler.TEEPDaily)
	}

	router.GET("/api/kpi/summary", kpiHandler.Summary)

	dashboard := router.Group("/dashboard", limiter)
	{
		dashboard.GET("", dashboardHandler.Page)
		dashboard.GET("/panel", dashboardHandler.Panel)
		dashboard.GET("/charts/oee", dashboardHandler.MonthlyOEE)
		dashboard.GET("/charts/teep", dashboardHandler.MonthlyTEEP)
	}

	return router
}
