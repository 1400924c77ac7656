// Package config provides configuration loading for chatd.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. This package supports server, OpenAI, chat, database, tracing,
// observability, and logging settings.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete chatd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	OpenAI        OpenAIConfig        `koanf:"openai"`
	Chat          ChatConfig          `koanf:"chat"`
	Database      DatabaseConfig      `koanf:"database"`
	Tracing       TracingConfig       `koanf:"tracing"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string `koanf:"allowed_origins"`
	RateLimit       float64  `koanf:"rate_limit"` // requests per second on /chat, 0 disables
}

// OpenAIConfig holds the upstream completion endpoint configuration.
type OpenAIConfig struct {
	APIKey         Secret   `koanf:"api_key"`
	BaseURL        string   `koanf:"base_url"`
	DefaultModel   string   `koanf:"default_model"`
	MaxTokens      int      `koanf:"max_tokens"`
	Temperature    float64  `koanf:"temperature"`
	RequestTimeout Duration `koanf:"request_timeout"`
	ModelCacheTTL  Duration `koanf:"model_cache_ttl"`
}

// ChatConfig holds orchestrator configuration.
type ChatConfig struct {
	MaxHistory       int `koanf:"max_history"`
	PersistQueueSize int `koanf:"persist_queue_size"`
}

// DatabaseConfig holds the conversation store configuration.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// TracingConfig holds the external trace/feedback service configuration.
// When disabled, all trace, feedback, and dataset operations are no-ops.
type TracingConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	APIKey   Secret `koanf:"api_key"`
	Project  string `koanf:"project"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Endpoint       string `koanf:"endpoint"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	Insecure       bool   `koanf:"insecure"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	// OpenAI defaults
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.DefaultModel == "" {
		cfg.OpenAI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.MaxTokens == 0 {
		cfg.OpenAI.MaxTokens = 1000
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.7
	}
	if cfg.OpenAI.RequestTimeout == 0 {
		cfg.OpenAI.RequestTimeout = Duration(60 * time.Second)
	}
	if cfg.OpenAI.ModelCacheTTL == 0 {
		cfg.OpenAI.ModelCacheTTL = Duration(30 * time.Second)
	}

	// Chat defaults
	if cfg.Chat.MaxHistory == 0 {
		cfg.Chat.MaxHistory = 10
	}
	if cfg.Chat.PersistQueueSize == 0 {
		cfg.Chat.PersistQueueSize = 256
	}

	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = "portfolio_chatbot.db"
	}

	// Tracing defaults
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "https://api.smith.langchain.com"
	}
	if cfg.Tracing.Project == "" {
		cfg.Tracing.Project = "portfolio-chatbot"
	}

	// Observability defaults
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "chatd"
	}
	if cfg.Observability.ServiceVersion == "" {
		cfg.Observability.ServiceVersion = "0.1.0"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - OpenAI API key is missing
//   - Temperature is outside [0, 2]
//   - Chat limits are not positive
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative: %f", c.Server.RateLimit)
	}

	if !c.OpenAI.APIKey.IsSet() {
		return errors.New("openai.api_key is required (set OPENAI_API_KEY)")
	}
	if c.OpenAI.BaseURL == "" {
		return errors.New("openai.base_url is required")
	}
	if c.OpenAI.DefaultModel == "" {
		return errors.New("openai.default_model is required")
	}
	if c.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("openai.max_tokens must be positive, got %d", c.OpenAI.MaxTokens)
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai.temperature must be between 0 and 2, got %f", c.OpenAI.Temperature)
	}
	if c.OpenAI.RequestTimeout.Duration() <= 0 {
		return errors.New("openai.request_timeout must be positive")
	}

	if c.Chat.MaxHistory <= 0 {
		return fmt.Errorf("chat.max_history must be positive, got %d", c.Chat.MaxHistory)
	}
	if c.Chat.PersistQueueSize <= 0 {
		return fmt.Errorf("chat.persist_queue_size must be positive, got %d", c.Chat.PersistQueueSize)
	}

	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return errors.New("tracing.endpoint is required when tracing is enabled")
		}
		if !c.Tracing.APIKey.IsSet() {
			return errors.New("tracing.api_key is required when tracing is enabled")
		}
	}

	if c.Observability.Enabled {
		if c.Observability.Endpoint == "" {
			return errors.New("observability.endpoint is required when telemetry is enabled")
		}
		if c.Observability.ServiceName == "" {
			return errors.New("observability.service_name is required when telemetry is enabled")
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
