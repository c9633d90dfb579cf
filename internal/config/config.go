package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// State backends selectable with STATE_BACKEND
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port           string
	APIBaseURL     string
	APITimeout     time.Duration
	APIRateLimit   float64 // outgoing requests per second, 0 disables the limiter
	APIRateBurst   int
	StateBackend   string
	StateDir       string
	StateSecret    string
	DatabaseURL    string
	RedisURL       string
	RabbitMQURL    string // empty disables cross-instance invalidation
	CacheStaleTime time.Duration
	CacheGCTime    time.Duration
	AllowedOrigins string
	Environment    string // development, staging, production
	LogLevel       string
	LogFormat      string // text or json
}

// Load loads configuration from environment variables and validates for production
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		APITimeout:     getDuration("API_TIMEOUT", 30*time.Second),
		APIRateLimit:   getFloat("API_RATE_LIMIT", 20),
		APIRateBurst:   getInt("API_RATE_BURST", 40),
		StateBackend:   getEnv("STATE_BACKEND", BackendFile),
		StateDir:       getEnv("STATE_DIR", defaultStateDir()),
		StateSecret:    getEnv("STATE_SECRET", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		CacheStaleTime: getDuration("CACHE_STALE_TIME", 5*time.Minute),
		CacheGCTime:    getDuration("CACHE_GC_TIME", 10*time.Minute),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL (got %q)", c.APIBaseURL)
	}

	switch c.StateBackend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when STATE_BACKEND=redis")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when STATE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend)
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json (got %q)", c.LogFormat)
	}

	if c.CacheStaleTime < 0 || c.CacheGCTime < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}

	// Tokens written to disk must be sealed in production
	if c.IsProduction() && c.StateBackend == BackendFile {
		if c.StateSecret == "" {
			return fmt.Errorf("STATE_SECRET must be set in production when STATE_BACKEND=file")
		}
		if len(c.StateSecret) < 32 {
			return fmt.Errorf("STATE_SECRET must be at least 32 characters in production (got %d)", len(c.StateSecret))
		}
		if u.Scheme != "https" {
			log.Println("WARNING: API_BASE_URL does not use HTTPS in production")
		}
	} else if c.StateSecret == "" && c.StateBackend == BackendFile {
		log.Println("STATE_SECRET not set, session state will be stored unsealed")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".eduplatform"
	}
	return filepath.Join(dir, "eduplatform")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("invalid number for %s=%q, using %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}
