package main

import (
	"plantdash/internal/config"
	"plantdash/internal/dataset"
	logger "plantdash/internal/logging"
	"plantdash/internal/router"

	"go.uber.org/zap"
)

func main() {
	// Initialize Logger with defaults; configuration is not loaded yet.
	log, err := logger.Init("logs", logger.DefaultRotation)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize configuration
	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Rebuild the logger with the configured directory and rotation.
	logConf := config.Conf.Logging
	if configured, err := logger.Init(logConf.Directory, logger.Rotation{
		MaxSize:    logConf.MaxSize,
		MaxBackups: logConf.MaxBackups,
		MaxAge:     logConf.MaxAge,
		Compress:   logConf.Compress,
	}); err != nil {
		log.Warn("Keeping bootstrap logger", zap.Error(err))
	} else {
		log = configured
		defer log.Sync()
	}

	// Load the dataset catalog at startup
	catalog, err := dataset.LoadCatalog(config.Conf.Data.Catalog)
	if err != nil {
		log.Fatal("Failed to load dataset catalog", zap.Error(err))
	}

	loader := dataset.New(config.Conf.Data.Dir, config.Conf.Data.DateLayouts, log)
	var source dataset.Source = loader
	if config.Conf.Data.Cache {
		source = dataset.NewCache(loader)
		log.Info("Spreadsheet cache enabled")
	}

	// Setup router, passing the logger to it
	r := router.Setup(log, source, catalog)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
