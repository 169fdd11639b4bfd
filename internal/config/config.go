package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SearchConfig holds Google Custom Search credentials and tunables.
type SearchConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	EngineID   string `yaml:"engine_id" mapstructure:"engine_id"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
	Locale     string `yaml:"locale" mapstructure:"locale"`
}

// LLMConfig holds Anthropic API settings for the extraction stage.
type LLMConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PricingConfig configures the price-discovery pipeline.
type PricingConfig struct {
	Currency         string `yaml:"currency" mapstructure:"currency"`
	ContextCharLimit int    `yaml:"context_char_limit" mapstructure:"context_char_limit"`
	StageTimeoutSecs int    `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
	RegistryPath     string `yaml:"registry_path" mapstructure:"registry_path"`
}

// RefreshConfig configures the batch price refresher.
type RefreshConfig struct {
	Concurrency   int           `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec    float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Interval      time.Duration `yaml:"interval" mapstructure:"interval"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("search.max_results", 6)
	v.SetDefault("search.locale", "tr-TR")
	v.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.max_tokens", 64)
	v.SetDefault("pricing.currency", "TRY")
	v.SetDefault("pricing.context_char_limit", 4000)
	v.SetDefault("pricing.stage_timeout_secs", 30)
	v.SetDefault("refresh.concurrency", 4)
	v.SetDefault("refresh.rate_per_sec", 2.0)
	v.SetDefault("refresh.interval", "168h")
	v.SetDefault("refresh.retry_attempts", 3)
	v.SetDefault("server.port", 8080)
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
