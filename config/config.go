package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every setting the server reads at startup
type Config struct {
	Environment string
	LogLevel    string

	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig contains HTTP settings
type ServerConfig struct {
	Port           string
	LoginPath      string
	AllowedOrigins []string
}

// DatabaseConfig selects the gorm dialector and its connection settings
type DatabaseConfig struct {
	Driver     string // "mysql" or "sqlite"
	User       string
	Password   string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Disabled bool
}

// SessionConfig contains login session settings
type SessionConfig struct {
	TTL time.Duration
}

// CacheConfig contains view cache settings
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig configures the per-client limiter on mutating routes
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// Load reads .env (when present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithField("module", "config").Warnf("error loading .env file: %v", err)
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8090"),
			LoginPath:      getEnv("LOGIN_PATH", "/login"),
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			User:       getEnv("DB_USER", "polly"),
			Password:   getEnv("DB_PASSWORD", "polly"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "3306"),
			Name:       getEnv("DB_NAME", "polly"),
			SQLitePath: getEnv("SQLITE_PATH", "polly.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Disabled: getEnvBool("REDIS_DISABLED", false),
		},
		Session: SessionConfig{
			TTL: getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		Cache: CacheConfig{
			TTL: getEnvDuration("VIEW_CACHE_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst:   getEnvInt("RATE_LIMIT_BURST", 10),
		},
	}
}

// IsProduction reports whether the server runs with production defaults
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv returns the value of key or defaultValue when unset
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
