package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port      int
	LogLevel  string
	LogFormat string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Connection pool tuning
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration

	APIKey   string   // API key for HTTP authentication
	AdminIDs []string // identities allowed to perform admin operations

	// Settlement worker tuning
	ResolvePollInterval time.Duration

	// Oracle feed providers, name -> base URL
	OracleProviders map[string]string
	OracleTimeout   time.Duration
	OracleMaxStale  time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "predictify"),
		APIKey:     getEnv("API_KEY", ""),
	}

	cfg.DBMaxConns = getEnvAsInt("DB_MAX_CONNS", 20)
	cfg.DBMaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute)
	cfg.DBMaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	pollStr := getEnv("RESOLVE_POLL_INTERVAL", "30s")
	poll, err := time.ParseDuration(pollStr)
	if err != nil {
		return nil, fmt.Errorf("invalid RESOLVE_POLL_INTERVAL value: %w", err)
	}
	cfg.ResolvePollInterval = poll

	oracleTimeout, err := time.ParseDuration(getEnv("ORACLE_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORACLE_TIMEOUT value: %w", err)
	}
	cfg.OracleTimeout = oracleTimeout

	oracleMaxStale, err := time.ParseDuration(getEnv("ORACLE_MAX_STALE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORACLE_MAX_STALE value: %w", err)
	}
	cfg.OracleMaxStale = oracleMaxStale

	// ORACLE_PROVIDERS is a comma-separated list of name=baseURL pairs,
	// e.g. "reflector=https://feeds.example.com,band=https://band.example.com"
	cfg.OracleProviders = make(map[string]string)
	for _, pair := range strings.Split(getEnv("ORACLE_PROVIDERS", ""), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, baseURL, found := strings.Cut(pair, "=")
		if !found || name == "" || baseURL == "" {
			return nil, fmt.Errorf("invalid ORACLE_PROVIDERS entry: %q", pair)
		}
		cfg.OracleProviders[name] = baseURL
	}

	for _, id := range strings.Split(getEnv("ADMIN_IDS", ""), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.AdminIDs = append(cfg.AdminIDs, id)
		}
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}
	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS environment variable must name at least one admin")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an int, falling back to
// the default when unset or unparseable
func getEnvAsInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAsDuration retrieves an environment variable as a duration, falling
// back to the default when unset or unparseable
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
