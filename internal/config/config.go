// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// DatabaseConfig holds document store settings. Backend is "mongo" or
// "memory"; the memory backend keeps everything in-process and is meant
// for tests and local runs.
type DatabaseConfig struct {
	Backend string
	URI     string
	Name    string
}

// CloudinaryConfig holds media upload credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Cloudinary     *CloudinaryConfig
	JWTSecret      string
	UserCacheTTL   time.Duration
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
	}
}

// DefaultDatabaseConfig provides default store settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Backend: "mongo",
		Name:    "hellofeed",
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",          // Current directory
		"../../.env",    // Project root when running from cmd/server
		"../../../.env", // Even higher directory
		filepath.Join(os.Getenv("GOPATH"), "src/hellofeed/.env"),
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		// Silent failure if no .env exists, which is fine
		_ = godotenv.Load()
	}

	serverConfig := DefaultConfig()

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	dbConfig := DefaultDatabaseConfig()

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		dbConfig.Backend = backend
	}

	switch dbConfig.Backend {
	case "mongo":
		dbConfig.URI = os.Getenv("MONGODB_URI")
		if dbConfig.URI == "" {
			return nil, fmt.Errorf("MONGODB_URI environment variable is required when STORE_BACKEND is mongo")
		}
		dbConfig.Name = getEnvOrDefault("MONGODB_DB_NAME", dbConfig.Name)
	case "memory":
		// Nothing to configure.
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q (want mongo or memory)", dbConfig.Backend)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	// Cloudinary credentials are optional: without them the media upload
	// endpoint is disabled and clients must send image URLs directly.
	cloudinary := &CloudinaryConfig{
		CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		Cloudinary:     cloudinary,
		JWTSecret:      jwtSecret,
		UserCacheTTL:   5 * time.Minute,
		AllowedOrigins: []string{"*"},
		Debug:          false,
	}

	if ttlStr := os.Getenv("USER_CACHE_TTL_SECONDS"); ttlStr != "" {
		if seconds, err := strconv.Atoi(ttlStr); err == nil && seconds > 0 {
			config.UserCacheTTL = time.Duration(seconds) * time.Second
		}
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	return config, nil
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HasCloudinary reports whether upload credentials are configured.
func (c *Config) HasCloudinary() bool {
	return c.Cloudinary.CloudName != "" && c.Cloudinary.APIKey != "" && c.Cloudinary.APISecret != ""
}
