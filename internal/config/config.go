// Package config loads LocalCircle server configuration from flags, environment
// variables, a .env file and defaults, in that order of precedence.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Feed      FeedConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state. The document store lives in <BasePath>/db
// and the full-text index in <BasePath>/search.
type DataConfig struct {
	BasePath string
}

// DBPath returns the badger directory.
func (d DataConfig) DBPath() string { return filepath.Join(d.BasePath, "db") }

// SearchPath returns the bleve index directory.
func (d DataConfig) SearchPath() string { return filepath.Join(d.BasePath, "search") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // applies to JSON endpoints; SSE streams clear it
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds identity token verification settings. Tokens are minted by
// the identity provider; this server only verifies them.
type AuthConfig struct {
	// TokenKeyHex is the shared PASETO v4 key. When empty, a key is loaded or
	// generated under the data directory.
	TokenKeyHex string
	Issuer      string
	Audience    string
}

// FeedConfig holds proximity feed defaults.
type FeedConfig struct {
	GlobalLimit         int
	DefaultRadiusMeters float64
	MaxRadiusMeters     float64
}

// RateLimitConfig bounds write traffic per user.
type RateLimitConfig struct {
	WritesPerMinute int
	Burst           int
}

// LoadConfig parses args (normally os.Args[1:]) and resolves every value with
// precedence flag > environment > .env file > default.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("localcircle", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for the document store and search index")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")

	tokenKey := fs.String("token-key", "", "Hex encoded PASETO v4 key shared with the identity provider")
	tokenIssuer := fs.String("token-issuer", "", "Expected token issuer")
	tokenAudience := fs.String("token-audience", "", "Expected token audience")

	globalLimit := fs.String("feed-global-limit", "", "Posts in the global recent feed (default: 50)")
	defaultRadius := fs.String("feed-radius", "", "Default proximity radius in meters (default: 10000)")
	maxRadius := fs.String("feed-max-radius", "", "Largest accepted proximity radius in meters (default: 50000)")

	writesPerMinute := fs.String("writes-per-minute", "", "Write requests per user per minute (default: 120)")
	writeBurst := fs.String("write-burst", "", "Write burst size (default: 20)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			TokenKeyHex: getConfigValue(*tokenKey, "TOKEN_KEY", ""),
			Issuer:      getConfigValue(*tokenIssuer, "TOKEN_ISSUER", "localcircle-identity"),
			Audience:    getConfigValue(*tokenAudience, "TOKEN_AUDIENCE", "localcircle-app"),
		},
		Feed: FeedConfig{
			GlobalLimit:         getIntConfigValue(*globalLimit, "FEED_GLOBAL_LIMIT", 50),
			DefaultRadiusMeters: getFloatConfigValue(*defaultRadius, "FEED_RADIUS", 10000),
			MaxRadiusMeters:     getFloatConfigValue(*maxRadius, "FEED_MAX_RADIUS", 50000),
		},
		RateLimit: RateLimitConfig{
			WritesPerMinute: getIntConfigValue(*writesPerMinute, "WRITES_PER_MINUTE", 120),
			Burst:           getIntConfigValue(*writeBurst, "WRITE_BURST", 20),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Auth.TokenKeyHex != "" && len(c.Auth.TokenKeyHex) != 64 {
		return fmt.Errorf("token key must be 64 hex characters, got %d", len(c.Auth.TokenKeyHex))
	}
	if c.Auth.Issuer == "" || c.Auth.Audience == "" {
		return errors.New("token issuer and audience are required")
	}

	if c.Feed.GlobalLimit <= 0 {
		return fmt.Errorf("feed global limit must be positive, got %d", c.Feed.GlobalLimit)
	}
	if c.Feed.DefaultRadiusMeters <= 0 || c.Feed.MaxRadiusMeters <= 0 {
		return errors.New("feed radii must be positive")
	}
	if c.Feed.DefaultRadiusMeters > c.Feed.MaxRadiusMeters {
		return fmt.Errorf("default radius %.0fm exceeds max radius %.0fm", c.Feed.DefaultRadiusMeters, c.Feed.MaxRadiusMeters)
	}

	if c.RateLimit.WritesPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit values must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "LocalCircle", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s %q: %w", envKey, strValue, err)
	}
	return d, nil
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

// loadEnvFile loads KEY=value lines from path. Variables already present in
// the environment are left alone.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- operator supplied config path
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
