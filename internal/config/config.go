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
	Pappers    PappersConfig    `yaml:"pappers" mapstructure:"pappers"`
	Fullenrich FullenrichConfig `yaml:"fullenrich" mapstructure:"fullenrich"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PappersConfig holds registry API settings.
type PappersConfig struct {
	APIToken          string `yaml:"api_token" mapstructure:"api_token"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	RequestIntervalMS int    `yaml:"request_interval_ms" mapstructure:"request_interval_ms"`
}

// FullenrichConfig holds enrichment API settings.
type FullenrichConfig struct {
	APIKey           string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	PollIntervalSecs int    `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollMaxAttempts  int    `yaml:"poll_max_attempts" mapstructure:"poll_max_attempts"`
}

// StoreConfig configures the lead database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// SearchConfig holds search and enrichment defaults.
type SearchConfig struct {
	MaxResults     int    `yaml:"max_results" mapstructure:"max_results"`
	MaxEnrichments int    `yaml:"max_enrichments" mapstructure:"max_enrichments"`
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
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
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so their env overrides are
	// visible to Unmarshal.
	v.SetDefault("pappers.api_token", "")
	v.SetDefault("fullenrich.api_key", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("pappers.base_url", "https://api.pappers.fr/v2")
	v.SetDefault("pappers.request_interval_ms", 400)
	v.SetDefault("fullenrich.base_url", "https://app.fullenrich.com/api/v2")
	v.SetDefault("fullenrich.poll_interval_secs", 4)
	v.SetDefault("fullenrich.poll_max_attempts", 40)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.max_results", 100)
	v.SetDefault("search.max_enrichments", 10)
	v.SetDefault("search.output_dir", "resultats")
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
