package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the toolkit
type Config struct {
	ServerURL   string // Base URL of the remote activation API
	TokenPath   string // Persisted auth-token slot on disk
	RedisURL    string // Optional read-cache backend
	LogLevel    string
	Environment string
	PreviewAddr string // Listen address for the local result preview
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ServerURL:   getEnv("IMG_MOTION_SERVER_URL", "https://api.img-motion.com"),
		TokenPath:   getEnv("IMG_MOTION_TOKEN_PATH", defaultTokenPath()),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),
		PreviewAddr: getEnv("PREVIEW_ADDR", "127.0.0.1:7345"),
	}, nil
}

// defaultTokenPath places the token slot under the user config directory,
// falling back to the working directory when none is resolvable.
func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "img-motion-auth-token"
	}
	return filepath.Join(dir, "img-motion", "img-motion-auth-token")
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
