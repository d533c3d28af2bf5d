package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	KPI     KPIConfig     `mapstructure:"kpi"`
	Display DisplayConfig `mapstructure:"display"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// DataConfig holds the spreadsheet source settings.
type DataConfig struct {
	Dir         string   `mapstructure:"dir"`
	Catalog     string   `mapstructure:"catalog"`
	DateLayouts []string `mapstructure:"date_layouts"`
	Cache       bool     `mapstructure:"cache"`
}

// KPIConfig holds the KPI targets and role labels.
type KPIConfig struct {
	// Target is the pass/fail threshold for the summary cards, as a fraction.
	Target float64 `mapstructure:"target"`
	// ChartTarget is the dashed reference line on the monthly charts.
	ChartTarget float64 `mapstructure:"chart_target"`
	// Roles are the two display role labels, in order.
	Roles []string `mapstructure:"roles"`
	// RoleMap maps a category name to a role label. When empty the engine
	// falls back to the legacy positional assignment (sorted category order).
	RoleMap map[string]string `mapstructure:"role_map"`
}

// DisplayConfig holds formatting conventions.
type DisplayConfig struct {
	// DecimalComma renders "81,2%" instead of "81.2%".
	DecimalComma bool `mapstructure:"decimal_comma"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.session_secret", "change-me")

	// Data defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.catalog", "config/datasets.yaml")
	v.SetDefault("data.date_layouts", []string{"2006-01-02", "02/01/2006"})
	v.SetDefault("data.cache", false)

	// KPI defaults: summary threshold is 77%, chart reference line is 75%.
	v.SetDefault("kpi.target", 0.77)
	v.SetDefault("kpi.chart_target", 0.75)
	v.SetDefault("kpi.roles", []string{"SMT", "IM"})
	v.SetDefault("kpi.role_map", map[string]string{})

	// Display defaults
	v.SetDefault("display.decimal_comma", true)

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("PLANTDASH") // e.g., PLANTDASH_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
