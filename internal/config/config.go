// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pokearena/arena-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Pokedex PokedexConfig `yaml:"pokedex" mapstructure:"pokedex"`
	Arena   ArenaConfig   `yaml:"arena" mapstructure:"arena"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// PokedexConfig holds the external data-service settings.
type PokedexConfig struct {
	Endpoint  string  `yaml:"endpoint" mapstructure:"endpoint"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// ArenaConfig bounds a judgment run.
type ArenaConfig struct {
	OverallDeadlineSecs int `yaml:"overall_deadline_secs" mapstructure:"overall_deadline_secs"`
}

// RetryConfig configures fetch-agent retries.
type RetryConfig struct {
	MaxAttempts           int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS      int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS          int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	RateLimitCooldownSecs int `yaml:"rate_limit_cooldown_secs" mapstructure:"rate_limit_cooldown_secs"`
}

// ServerConfig configures the battle API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// HistoryConfig configures the local verdict history store. An empty path
// disables recording.
type HistoryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OverallDeadline returns the acquisition budget as a duration.
func (c ArenaConfig) OverallDeadline() time.Duration {
	return time.Duration(c.OverallDeadlineSecs) * time.Second
}

// Resilience converts the config section into retry parameters.
func (c RetryConfig) Resilience() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoffMS > 0 {
		cfg.InitialBackoff = time.Duration(c.InitialBackoffMS) * time.Millisecond
	}
	if c.MaxBackoffMS > 0 {
		cfg.MaxBackoff = time.Duration(c.MaxBackoffMS) * time.Millisecond
	}
	if c.RateLimitCooldownSecs > 0 {
		cfg.RateLimitCooldown = time.Duration(c.RateLimitCooldownSecs) * time.Second
	}
	return cfg
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("pokedex.endpoint", "http://127.0.0.1:3000/mcp")
	v.SetDefault("pokedex.rate_limit", 10)
	v.SetDefault("pokedex.rate_burst", 10)
	v.SetDefault("arena.overall_deadline_secs", 30)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 8000)
	v.SetDefault("retry.rate_limit_cooldown_secs", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("history.path", "")
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
