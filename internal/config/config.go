package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from an optional YAML
// file (CONFIG_FILE) overridden by environment variables.
type Config struct {
	DatabaseURL      string  `yaml:"database_url"`
	ServerPort       string  `yaml:"server_port"`
	FrontendURL      string  `yaml:"frontend_url"`
	OpenAIKey        string  `yaml:"openai_api_key"`
	AIModel          string  `yaml:"ai_model"`
	AIBaseURL        string  `yaml:"ai_base_url"`
	RedisURL         string  `yaml:"redis_url"`
	RabbitMQURL      string  `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int     `yaml:"rabbitmq_prefetch"`
	WorkerDebugMode  bool    `yaml:"worker_debug_mode"`
	ServerDebugMode  bool    `yaml:"server_debug_mode"`
	EnableHSTS       bool    `yaml:"enable_hsts"`
	OTELEnabled      bool    `yaml:"otel_enabled"`
	OTELEndpoint     string  `yaml:"otel_endpoint"`
	DayStart         string  `yaml:"day_start"`
	DefaultHours     float64 `yaml:"default_hours"`
	BreakMinutes     int     `yaml:"break_minutes"`
}

// Load builds configuration from the optional YAML file and environment
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:       "8080",
		FrontendURL:      "http://localhost:3000",
		RedisURL:         "redis://localhost:6379/0",
		RabbitMQPrefetch: 1,
		DayStart:         "09:00",
		DefaultHours:     6,
		BreakMinutes:     15,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.AIModel = getEnv("AI_MODEL", cfg.AIModel)
	cfg.AIBaseURL = getEnv("AI_BASE_URL", cfg.AIBaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQPrefetch = getEnvInt("RABBITMQ_PREFETCH", cfg.RabbitMQPrefetch)
	cfg.WorkerDebugMode = getEnvBool("WORKER_DEBUG_MODE", cfg.WorkerDebugMode)
	cfg.ServerDebugMode = getEnvBool("SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.EnableHSTS = getEnvBool("ENABLE_HSTS", cfg.EnableHSTS)
	cfg.OTELEnabled = getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)
	cfg.DayStart = getEnv("DAY_START", cfg.DayStart)
	cfg.DefaultHours = getEnvFloat("DEFAULT_HOURS", cfg.DefaultHours)
	cfg.BreakMinutes = getEnvInt("BREAK_MINUTES", cfg.BreakMinutes)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for job queueing (goal decomposition requires RabbitMQ)")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
