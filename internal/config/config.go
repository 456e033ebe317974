package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Log     LogConfig
}

// APIConfig holds the remote service configuration.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig holds the local session storage configuration.
type SessionConfig struct {
	DBPath string
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level string
}

// LoadConfig loads the configuration from the environment. A .env file in
// the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:3000"),
			Timeout: getEnvAsDuration("API_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			DBPath: getEnv("SESSION_DB_PATH", "./data/session.db"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Validate checks the configuration and returns an error describing every
// invalid field.
func (c *Config) Validate() error {
	var problems []string

	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid API base URL %q", c.API.BaseURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("API base URL scheme must be http or https, got %q", parsed.Scheme))
	}

	if c.API.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid API timeout %s: must be positive", c.API.Timeout))
	}

	if c.Session.DBPath == "" {
		problems = append(problems, "session DB path must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %v", problems)
	}
	return nil
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
