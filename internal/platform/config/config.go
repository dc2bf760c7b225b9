package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	JWT       JWTConfig       `json:"jwt"`
	HMAC      HMACConfig      `json:"hmac"`
	Cache     CacheConfig     `json:"cache"`
	RateLimit RateLimitConfig `json:"rateLimit"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	BaseRoute string `json:"baseRoute"`
	WebDomain string `json:"webDomain"`
	Debug     bool   `json:"debug"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Type        string           `json:"type"`
	Postgres    PostgreSQLConfig `json:"postgres"`
	AutoMigrate bool             `json:"autoMigrate"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	Schema          string        `json:"schema"`
	SSLMode         string        `json:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnectTimeout  int           `json:"connectTimeout"`
}

// JWTConfig holds the identity provider's token verification key
type JWTConfig struct {
	PublicKey string `json:"publicKey"`
	ClaimKey  string `json:"claimKey"`
}

// HMACConfig holds HMAC-related configuration
type HMACConfig struct {
	Secret string `json:"secret"`
}

// CacheConfig holds the backing store configuration for rate limiting and settings lookups
type CacheConfig struct {
	Backend string        `json:"backend"`
	Prefix  string        `json:"prefix"`
	TTL     time.Duration `json:"ttl"`
	Redis   RedisConfig   `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	Database int    `json:"database"`
	PoolSize int    `json:"poolSize"`
}

// RateLimitConfig holds rate limiting configuration for the API
type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Max      int           `json:"max"`
	Duration time.Duration `json:"duration"`
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoadFromEnv loads configuration from the environment.
// Precedence: explicit environment variables, then values from a .env file, then defaults.
func LoadFromEnv() (*Config, error) {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	var loadErr error
	for _, envPath := range envPaths {
		loadErr = godotenv.Load(envPath)
		if loadErr == nil {
			break
		}
	}

	if loadErr != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	config := load(os.Getenv)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadFromMap loads configuration from an in-memory map.
// This is the primary helper for testing configuration logic in isolation
// without manipulating global environment variables.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	config := load(func(key string) string {
		return envMap[key]
	})
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func load(lookup func(string) string) *Config {
	e := env{lookup: lookup}

	return &Config{
		Server: ServerConfig{
			Host:      e.get("HOST", "0.0.0.0"),
			Port:      e.getInt("SERVER_PORT", 8080),
			BaseRoute: e.get("BASE_ROUTE", "/api"),
			WebDomain: e.get("WEB_DOMAIN", "http://localhost:3000"),
			Debug:     e.getBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Type:        e.get("DB_TYPE", "postgresql"),
			AutoMigrate: e.getBool("DB_AUTO_MIGRATE", false),
			Postgres: PostgreSQLConfig{
				Host:            e.get("POSTGRES_HOST", "localhost"),
				Port:            e.getInt("POSTGRES_PORT", 5432),
				Username:        e.get("POSTGRES_USERNAME", ""),
				Password:        e.get("POSTGRES_PASSWORD", ""),
				Database:        e.get("POSTGRES_DATABASE", "fieldcrew"),
				Schema:          e.get("POSTGRES_SCHEMA", ""),
				SSLMode:         e.get("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    e.getInt("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    e.getInt("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(e.getInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
				ConnectTimeout:  e.getInt("POSTGRES_CONNECT_TIMEOUT", 10),
			},
		},
		JWT: JWTConfig{
			PublicKey: e.get("JWT_PUBLIC_KEY", ""),
			ClaimKey:  e.get("JWT_CLAIM_KEY", "claim"),
		},
		HMAC: HMACConfig{
			Secret: e.get("HMAC_SECRET", ""),
		},
		Cache: CacheConfig{
			Backend: e.get("CACHE_BACKEND", "memory"),
			Prefix:  e.get("CACHE_PREFIX", "fieldcrew:"),
			TTL:     e.getDuration("CACHE_TTL", 5*time.Minute),
			Redis: RedisConfig{
				Address:  e.get("REDIS_ADDRESS", "localhost:6379"),
				Password: e.get("REDIS_PASSWORD", ""),
				Database: e.getInt("REDIS_DATABASE", 0),
				PoolSize: e.getInt("REDIS_POOL_SIZE", 10),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:  e.getBool("RATE_LIMIT_ENABLED", true),
			Max:      e.getInt("RATE_LIMIT_MAX", 300),
			Duration: e.getDuration("RATE_LIMIT_DURATION", 1*time.Minute),
		},
		Metrics: MetricsConfig{
			Enabled: e.getBool("METRICS_ENABLED", true),
			Path:    e.get("METRICS_PATH", "/metrics"),
		},
	}
}

// Validate validates the configuration for required fields
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.JWT.PublicKey) == "" && strings.TrimSpace(c.HMAC.Secret) == "" {
		errors = append(errors, "one of JWT_PUBLIC_KEY or HMAC_SECRET is required")
	}

	validDbTypes := []string{"postgresql"}
	if !contains(validDbTypes, c.Database.Type) {
		errors = append(errors, fmt.Sprintf("DB_TYPE must be one of: %s", strings.Join(validDbTypes, ", ")))
	}

	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, c.Cache.Backend) {
		errors = append(errors, fmt.Sprintf("CACHE_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
	}

	if c.RateLimit.Enabled && c.RateLimit.Max <= 0 {
		errors = append(errors, "RATE_LIMIT_MAX must be positive when rate limiting is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// env reads typed values through a lookup function, falling back to defaults
// when a key is unset or cannot be parsed.
type env struct {
	lookup func(string) string
}

func (e env) get(key, defaultValue string) string {
	if value := e.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (e env) getInt(key string, defaultValue int) int {
	if value := e.lookup(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e env) getBool(key string, defaultValue bool) bool {
	if value := e.lookup(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (e env) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := e.lookup(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
