package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the monitoring daemon configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
	Retry     RetryConfig     `json:"retry"`
	Breaker   BreakerConfig   `json:"breaker"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Metrics   MetricsConfig   `json:"metrics"`
	Alerting  AlertingConfig  `json:"alerting"`
	Redis     RedisConfig     `json:"redis"`
	Health    HealthConfig    `json:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// RetryConfig contains default retry policy for external calls
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// BreakerConfig contains circuit breaker configuration
type BreakerConfig struct {
	Threshold int           `json:"threshold"`
	Window    time.Duration `json:"window"`
}

// RateLimitConfig contains admission-control configuration
type RateLimitConfig struct {
	Strategy   string        `json:"strategy"` // token_bucket, sliding_window, fixed_window
	Limit      int           `json:"limit"`
	Window     time.Duration `json:"window"`
	Capacity   float64       `json:"capacity"`
	RefillRate float64       `json:"refill_rate"`
}

// MetricsConfig contains metrics collector configuration
type MetricsConfig struct {
	MaxHistory   int           `json:"max_history"`
	PollInterval time.Duration `json:"poll_interval"`
	Namespace    string        `json:"namespace"`
}

// AlertingConfig contains alert manager configuration
type AlertingConfig struct {
	CheckInterval time.Duration `json:"check_interval"`
	WebhookURL    string        `json:"webhook_url"`
}

// RedisConfig contains optional Redis configuration for distributed
// rate limiting
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// HealthConfig contains collaborator health probe configuration
type HealthConfig struct {
	RPCURL  string        `json:"rpc_url"`
	IPFSURL string        `json:"ipfs_url"`
	Timeout time.Duration `json:"timeout"`
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
		Retry: RetryConfig{
			MaxRetries:    getEnvInt("RETRY_MAX_RETRIES", 3),
			InitialDelay:  getEnvDuration("RETRY_INITIAL_DELAY", 1*time.Second),
			MaxDelay:      getEnvDuration("RETRY_MAX_DELAY", 60*time.Second),
			BackoffFactor: getEnvFloat("RETRY_BACKOFF_FACTOR", 2.0),
		},
		Breaker: BreakerConfig{
			Threshold: getEnvInt("BREAKER_THRESHOLD", 5),
			Window:    getEnvDuration("BREAKER_WINDOW", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Strategy:   getEnvString("RATELIMIT_STRATEGY", "token_bucket"),
			Limit:      getEnvInt("RATELIMIT_LIMIT", 100),
			Window:     getEnvDuration("RATELIMIT_WINDOW", time.Minute),
			Capacity:   getEnvFloat("RATELIMIT_CAPACITY", 100),
			RefillRate: getEnvFloat("RATELIMIT_REFILL_RATE", 10),
		},
		Metrics: MetricsConfig{
			MaxHistory:   getEnvInt("METRICS_MAX_HISTORY", 1000),
			PollInterval: getEnvDuration("METRICS_POLL_INTERVAL", 60*time.Second),
			Namespace:    getEnvString("METRICS_NAMESPACE", "mintshield"),
		},
		Alerting: AlertingConfig{
			CheckInterval: getEnvDuration("ALERT_CHECK_INTERVAL", 30*time.Second),
			WebhookURL:    getEnvString("ALERT_WEBHOOK_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Health: HealthConfig{
			RPCURL:  getEnvString("HEALTH_RPC_URL", ""),
			IPFSURL: getEnvString("HEALTH_IPFS_URL", ""),
			Timeout: getEnvDuration("HEALTH_TIMEOUT", 10*time.Second),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.RateLimit.Strategy) {
	case "token_bucket", "sliding_window", "fixed_window":
	default:
		return fmt.Errorf("unknown rate limit strategy: %s", c.RateLimit.Strategy)
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry max retries must not be negative")
	}

	if c.Breaker.Threshold <= 0 {
		return fmt.Errorf("breaker threshold must be positive")
	}

	return nil
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
