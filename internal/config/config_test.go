package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/srv/localcircle"},
		Auth:   AuthConfig{Issuer: "idp", Audience: "app"},
		Feed: FeedConfig{
			GlobalLimit:         50,
			DefaultRadiusMeters: 10000,
			MaxRadiusMeters:     50000,
		},
		RateLimit: RateLimitConfig{WritesPerMinute: 60, Burst: 10},
	}
}

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH", "SERVER_PORT", "SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "CORS_ORIGINS", "TOKEN_KEY",
		"TOKEN_ISSUER", "TOKEN_AUDIENCE", "FEED_GLOBAL_LIMIT", "FEED_RADIUS",
		"FEED_MAX_RADIUS", "WRITES_PER_MINUTE", "WRITE_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_LogLevels(t *testing.T) {
	for level, valid := range map[string]bool{"debug": true, "INFO": true, "warn": true, "error": true, "trace": false, "": false} {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = level
			assert.Equal(t, valid, cfg.Validate() == nil)
		})
	}
}

func TestValidate_Feed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero limit", func(c *Config) { c.Feed.GlobalLimit = 0 }, "global limit"},
		{"negative radius", func(c *Config) { c.Feed.DefaultRadiusMeters = -1 }, "radii must be positive"},
		{"zero max radius", func(c *Config) { c.Feed.MaxRadiusMeters = 0 }, "radii must be positive"},
		{"default above max", func(c *Config) { c.Feed.DefaultRadiusMeters = 60000 }, "exceeds max radius"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_TokenKeyLength(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.TokenKeyHex = "abcd"
	assert.ErrorContains(t, cfg.Validate(), "64 hex characters")

	cfg.Auth.TokenKeyHex = strings.Repeat("ab", 32)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""
	assert.ErrorContains(t, cfg.Validate(), "data base path cannot be empty")
}

func TestDataConfig_Paths(t *testing.T) {
	d := DataConfig{BasePath: "/srv/lc"}
	assert.Equal(t, "/srv/lc/db", d.DBPath())
	assert.Equal(t, "/srv/lc/search", d.SearchPath())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadConfig([]string{"-data-path", dir, "-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 50, cfg.Feed.GlobalLimit)
	assert.InDelta(t, 10000, cfg.Feed.DefaultRadiusMeters, 0)
	assert.InDelta(t, 50000, cfg.Feed.MaxRadiusMeters, 0)
	assert.Equal(t, 120, cfg.RateLimit.WritesPerMinute)
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=error\nFEED_RADIUS=2500\nSERVER_PORT=7000\n"), 0o600))

	t.Setenv("SERVER_PORT", "9000")

	cfg, err := LoadConfig([]string{
		"-data-path", dir,
		"-env-file", envFile,
		"-log-level", "debug",
		"-cors-origins", "https://a.example, https://b.example",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level, "flag beats .env")
	assert.Equal(t, "9000", cfg.Server.Port, "env beats .env")
	assert.InDelta(t, 2500, cfg.Feed.DefaultRadiusMeters, 0, ".env beats default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadConfig_BadDuration(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	_, err := LoadConfig([]string{"-data-path", dir, "-env-file", "", "-read-timeout", "soon"})
	assert.ErrorContains(t, err, "SERVER_READ_TIMEOUT")
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"", filepath.Join(homeDir, "LocalCircle", "data")},
		{"~/lc", filepath.Join(homeDir, "lc")},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &Config{Data: DataConfig{BasePath: tt.in}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.want, cfg.Data.BasePath)
		})
	}

	cfg := &Config{Data: DataConfig{BasePath: "relative/dir"}}
	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("LC_TEST_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "LC_TEST_KEY", "default"))
	assert.Equal(t, "env-value", getConfigValue("", "LC_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "LC_TEST_MISSING", "default"))
}

func TestNumericConfigValues_FallBackOnGarbage(t *testing.T) {
	assert.Equal(t, 7, getIntConfigValue("abc", "LC_TEST_MISSING", 7))
	assert.Equal(t, 12, getIntConfigValue(" 12 ", "LC_TEST_MISSING", 7))
	assert.InDelta(t, 1.5, getFloatConfigValue("x", "LC_TEST_MISSING", 1.5), 0)
	assert.InDelta(t, 250.5, getFloatConfigValue("250.5", "LC_TEST_MISSING", 1.5), 0)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := `# comment
LC_A=plain

LC_B="quoted value"
LC_C='single'
  LC_D  =  spaced
LC_KEEP=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	for _, k := range []string{"LC_A", "LC_B", "LC_C", "LC_D"} {
		t.Setenv(k, "")
	}
	t.Setenv("LC_KEEP", "from-env")

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "plain", os.Getenv("LC_A"))
	assert.Equal(t, "quoted value", os.Getenv("LC_B"))
	assert.Equal(t, "single", os.Getenv("LC_C"))
	assert.Equal(t, "spaced", os.Getenv("LC_D"))
	assert.Equal(t, "from-env", os.Getenv("LC_KEEP"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GOOD=1\nNO EQUALS HERE\n"), 0o600))

	assert.ErrorContains(t, loadEnvFile(envFile), "invalid format at line 2")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/.env"))
}
