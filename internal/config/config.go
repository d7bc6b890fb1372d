package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// YouTube Data API
	YouTubeAPIKey string

	// Server
	ServerPort string

	// Sessions
	SessionTimeoutMinutes int // Minutes of silence before a player session is reaped (default: 30)

	// Paths
	DatabaseFile string // $CONFIG_DIR/ytwatch.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SESSION_TIMEOUT_MINUTES", 30)
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "ytwatch")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		YouTubeAPIKey:         viper.GetString("YOUTUBE_API_KEY"),
		ServerPort:            viper.GetString("SERVER_PORT"),
		SessionTimeoutMinutes: viper.GetInt("SESSION_TIMEOUT_MINUTES"),
		DatabaseFile:          filepath.Join(configDir, "ytwatch.db"),
		LogLevel:              viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields. A missing credential must fail here, before
	// any network call is attempted.
	if config.YouTubeAPIKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is required")
	}

	return config, nil
}
