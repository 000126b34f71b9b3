// Package config loads application configuration from file and
// environment and bootstraps the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Density DensityConfig `yaml:"density" mapstructure:"density"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DensityConfig configures the analysis itself.
type DensityConfig struct {
	// Distance is the stream buffer distance as a value plus linear unit,
	// e.g. "100 meters".
	Distance string `yaml:"distance" mapstructure:"distance"`
	// MinAreaM2 excludes watersheds below this area from aggregation.
	MinAreaM2 float64 `yaml:"min_area_m2" mapstructure:"min_area_m2"`
	// Workers bounds parallel per-watershed aggregation.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Report is the number of rows in the density-change report.
	Report int `yaml:"report" mapstructure:"report"`
}

// OutputConfig configures result writing.
type OutputConfig struct {
	Overwrite   bool `yaml:"overwrite" mapstructure:"overwrite"`
	ExportRoads bool `yaml:"export_roads" mapstructure:"export_roads"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROADDENSITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("density.distance", "100 meters")
	v.SetDefault("density.min_area_m2", 1.0)
	v.SetDefault("density.workers", 4)
	v.SetDefault("density.report", 10)
	v.SetDefault("output.overwrite", false)
	v.SetDefault("output.export_roads", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
