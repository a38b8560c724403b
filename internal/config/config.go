package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"prowler/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Permutation PermutationConfig
	LogLevel    string
}

// DatabaseConfig holds the run store connection settings
type DatabaseConfig struct {
	Driver string
	URL    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PermutationConfig holds the defaults for permutation runs. A zero Threshold
// means the caller has to supply one.
type PermutationConfig struct {
	Trials     int
	Workers    int
	Threshold  float64
	Seed       int64
	Timeout    time.Duration
	KeepTables bool
}

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: *loadDatabaseConfig(),
		Server:   *loadServerConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	permutation, err := loadPermutationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load permutation configuration")
	}
	config.Permutation = *permutation

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverSQLite))
	url := os.Getenv("DATABASE_URL")
	if url == "" && driver == DriverSQLite {
		url = "prowler.db"
	}
	return &DatabaseConfig{Driver: driver, URL: url}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadPermutationConfig() (*PermutationConfig, error) {
	seed, err := getEnvInt64("PROWLER_SEED", 1)
	if err != nil {
		return nil, err
	}
	return &PermutationConfig{
		Trials:     getEnvIntOrDefault("PROWLER_TRIALS", 100),
		Workers:    getEnvIntOrDefault("PROWLER_WORKERS", runtime.NumCPU()),
		Threshold:  getEnvFloatOrDefault("PROWLER_THRESHOLD", 0),
		Seed:       seed,
		Timeout:    getEnvDurationOrDefault("PROWLER_TIMEOUT", 0),
		KeepTables: getEnvBoolOrDefault("PROWLER_KEEP_TABLES", false),
	}, nil
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return errors.ConfigInvalid("DB_DRIVER must be sqlite or postgres, got " + strconv.Quote(config.Database.Driver))
	}
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required for the postgres driver")
	}
	if config.Permutation.Trials <= 0 {
		return errors.ConfigInvalid("PROWLER_TRIALS must be positive")
	}
	if config.Permutation.Workers <= 0 {
		return errors.ConfigInvalid("PROWLER_WORKERS must be positive")
	}
	if config.Permutation.Threshold < 0 {
		return errors.ConfigInvalid("PROWLER_THRESHOLD must not be negative")
	}
	if config.Permutation.Timeout < 0 {
		return errors.ConfigInvalid("PROWLER_TIMEOUT must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64 is strict: a seed that does not parse would silently change
// every run's output.
func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer")
	}
	return parsed, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
