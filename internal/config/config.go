// Package config provides configuration loading and validation for the API
// server. It uses koanf to merge environment variables with optional file
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Redis cache store. Empty address disables caching: the feed core
	// fails open and computes every page directly.
	RedisAddr        string `koanf:"redis_addr"`
	RedisOpTimeoutMS int    `koanf:"redis_op_timeout_ms"`

	// NATS mutation event bus. Empty URL disables event-driven
	// invalidation; staleness is then bounded by TTLs alone.
	NatsURL string `koanf:"nats_url"`

	// OpenTelemetry OTLP endpoint. Empty disables tracing export.
	OtelEndpoint string `koanf:"otel_endpoint"`

	// Ranking weight calibration file. Empty uses built-in defaults.
	RankingCalibrationPath string `koanf:"ranking_calibration_path"`
}

// Configuration validation errors.
var (
	ErrInvalidPort      = errors.New("PORT must be a valid integer")
	ErrInvalidOpTimeout = errors.New("REDIS_OP_TIMEOUT_MS must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultPort             = 8080
	DefaultEnv              = "development"
	DefaultRedisOpTimeoutMS = 150
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid). If a config file path is provided and the file cannot be loaded,
// an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefaultMulti([]string{"CAMPUSHIVE_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	opTimeout, timeoutErr := getEnvIntOrDefault("REDIS_OP_TIMEOUT_MS", k.Int("redis_op_timeout_ms"), DefaultRedisOpTimeoutMS)
	if timeoutErr != nil {
		loadErrs = append(loadErrs, timeoutErr)
	}

	cfg := &Config{
		Port:                   port,
		Env:                    getEnvOrDefaultMulti([]string{"CAMPUSHIVE_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		RedisAddr:              getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisOpTimeoutMS:       opTimeout,
		NatsURL:                getEnvOrKoanf("NATS_URL", k, "nats_url"),
		OtelEndpoint:           getEnvOrKoanf("OTEL_EXPORTER_OTLP_ENDPOINT", k, "otel_endpoint"),
		RankingCalibrationPath: getEnvOrKoanf("RANKING_CALIBRATION_PATH", k, "ranking_calibration_path"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return strings.TrimSpace(val)
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set,
// otherwise the koanf value, or default. Returns an error if the
// environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that the configuration values are coherent.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.RedisOpTimeoutMS <= 0 {
		errs = append(errs, ErrInvalidOpTimeout)
	}

	return errs
}

// CachingEnabled reports whether a cache store is configured.
func (c *Config) CachingEnabled() bool {
	return c.RedisAddr != ""
}

// InvalidationEnabled reports whether the mutation event bus is configured.
func (c *Config) InvalidationEnabled() bool {
	return c.NatsURL != ""
}

// LogSummary returns a summary of the configuration suitable for logging.
// Connection strings are masked to prevent credential exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                     fmt.Sprintf("%d", c.Port),
		"env":                      c.Env,
		"redis_addr":               maskAddr(c.RedisAddr),
		"redis_op_timeout_ms":      fmt.Sprintf("%d", c.RedisOpTimeoutMS),
		"nats_url":                 maskAddr(c.NatsURL),
		"otel_endpoint":            c.OtelEndpoint,
		"ranking_calibration_path": c.RankingCalibrationPath,
	}
}

// maskAddr masks the password in a user:password@host style address.
func maskAddr(s string) string {
	if s == "" {
		return "<not set>"
	}

	rest := s
	scheme := ""
	if idx := strings.Index(s, "://"); idx != -1 {
		scheme = s[:idx+3]
		rest = s[idx+3:]
	}

	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in address
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	return scheme + rest[:colonIndex] + ":****" + rest[atIndex:]
}
