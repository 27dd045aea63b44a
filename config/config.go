package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the client daemon and the development server.
type Config struct {
	// Server Configuration
	Port        string
	Host        string
	Environment string

	// Backend Configuration
	APIBaseURL string
	UserID     string

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Realtime Configuration
	WSReconnectBaseDelay   time.Duration
	WSMaxReconnectAttempts int
	WSHeartbeatInterval    time.Duration
	WSHandshakeTimeout     time.Duration
	WSDedupWindow          int

	// Inventory Configuration
	InventoryTimeout time.Duration

	// Development server storage; empty keeps notifications in memory.
	DevDBPath string

	// Feature Toggles
	EnableDesktopNotifications bool
	EnableCircuitBreaker       bool
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		// Server Configuration
		Port:        getEnv("PORT", "8080"),
		Host:        getEnv("HOST", "localhost"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Backend Configuration
		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		UserID:     getEnv("USER_ID", ""),

		// Logging Configuration
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		// Realtime Configuration
		WSReconnectBaseDelay:   getEnvAsDuration("WS_RECONNECT_BASE_DELAY", 3*time.Second),
		WSMaxReconnectAttempts: getEnvAsInt("WS_MAX_RECONNECT_ATTEMPTS", 5),
		WSHeartbeatInterval:    getEnvAsDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		WSHandshakeTimeout:     getEnvAsDuration("WS_HANDSHAKE_TIMEOUT", 10*time.Second),
		WSDedupWindow:          getEnvAsInt("WS_DEDUP_WINDOW", 128),

		// Inventory Configuration
		InventoryTimeout: getEnvAsDuration("INVENTORY_TIMEOUT", 15*time.Second),

		DevDBPath: getEnv("DEV_DB_PATH", ""),

		// Feature Toggles
		EnableDesktopNotifications: getEnvAsBool("ENABLE_DESKTOP_NOTIFICATIONS", false),
		EnableCircuitBreaker:       getEnvAsBool("ENABLE_CIRCUIT_BREAKER", true),
	}
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer with a fallback default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as boolean with a fallback default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("3s") or bare milliseconds ("3000").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Host + ":" + c.Port
}

// WebSocketBaseURL derives the realtime base address from APIBaseURL by
// swapping http for ws and https for wss.
func (c *Config) WebSocketBaseURL() (string, error) {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse API_BASE_URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("API_BASE_URL has unsupported scheme %q", u.Scheme)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() []string {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT is required")
	}

	if c.Host == "" {
		errors = append(errors, "HOST is required")
	}

	if _, err := c.WebSocketBaseURL(); err != nil {
		errors = append(errors, "API_BASE_URL must be an http(s) URL")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	validEnvironments := []string{"development", "staging", "production"}
	if !contains(validEnvironments, c.Environment) {
		errors = append(errors, "ENVIRONMENT must be one of: development, staging, production")
	}

	if c.WSReconnectBaseDelay <= 0 {
		errors = append(errors, "WS_RECONNECT_BASE_DELAY must be positive")
	}
	if c.WSMaxReconnectAttempts < 0 {
		errors = append(errors, "WS_MAX_RECONNECT_ATTEMPTS must not be negative")
	}
	if c.WSHeartbeatInterval <= 0 {
		errors = append(errors, "WS_HEARTBEAT_INTERVAL must be positive")
	}
	if c.WSDedupWindow < 0 {
		errors = append(errors, "WS_DEDUP_WINDOW must not be negative")
	}

	return errors
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
