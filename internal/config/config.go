package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Catalog API configuration
	Catalog CatalogConfig

	// Booking backend configuration
	Booking BookingConfig

	// Session / handoff storage configuration
	Session SessionConfig

	// Redis configuration (used when Session.Backend is "redis")
	Redis RedisConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// CatalogConfig holds the remote tour catalog settings
type CatalogConfig struct {
	APIURL  string        // Full URL of the package listing endpoint
	Timeout time.Duration // Per-fetch timeout
}

// BookingConfig holds the booking backend settings
type BookingConfig struct {
	APIURL string // Full URL of the booking endpoint
	// Timeout for the booking call. Zero disables the client-side timeout:
	// the payment redirect is the effective boundary.
	Timeout time.Duration
}

// SessionConfig holds transient handoff storage settings
type SessionConfig struct {
	Backend      string        // "memory" or "redis"
	HandoffTTL   time.Duration // How long handoff state survives the redirect
	CookieMaxAge int           // Session cookie lifetime in seconds
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Catalog: CatalogConfig{
			APIURL:  getEnv("CATALOG_API_URL", ""),
			Timeout: time.Duration(getEnvAsInt("CATALOG_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Booking: BookingConfig{
			APIURL:  getEnv("BOOKING_API_URL", ""),
			Timeout: time.Duration(getEnvAsInt("BOOKING_TIMEOUT_SECONDS", 0)) * time.Second,
		},
		Session: SessionConfig{
			Backend:      getEnv("SESSION_BACKEND", "memory"),
			HandoffTTL:   time.Duration(getEnvAsInt("HANDOFF_TTL_MINUTES", 60)) * time.Minute,
			CookieMaxAge: getEnvAsInt("SESSION_COOKIE_MAX_AGE", 86400),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Accept"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Catalog.APIURL == "" {
		return fmt.Errorf("CATALOG_API_URL is required")
	}

	if c.Booking.APIURL == "" {
		return fmt.Errorf("BOOKING_API_URL is required")
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be 'memory' or 'redis')", c.Session.Backend)
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
